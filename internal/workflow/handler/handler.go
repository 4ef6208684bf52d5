// Package handler exposes the status timeline and the two-phase workflow
// transition endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/signing"
	"servicebook/internal/transport/http/shared"
	"servicebook/internal/workflow"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/requestcontext"
)

// Service defines the workflow operations the handler delegates to.
type Service interface {
	Timeline(ctx context.Context, officerID id.OfficerID) (workflow.Timeline, error)
	Initiate(ctx context.Context, req workflow.TransitionRequest) (string, error)
	Complete(ctx context.Context, req workflow.CompleteRequest) (signing.Result, error)
}

type Handler struct {
	workflows Service
	logger    *slog.Logger
	validator middleware.JWTValidator
}

func New(workflows Service, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{workflows: workflows, logger: logger, validator: validator}
}

// Register mounts the workflow routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/officers/{officerID}/timeline", h.handleTimeline)
		r.Post("/officers/{officerID}/workflow/{action}/initiate", h.handleInitiate)
		r.Post("/officers/{officerID}/workflow/{action}/complete", h.handleComplete)
	})
}

type timelineEvent struct {
	Action         string    `json:"action"`
	ActorRole      string    `json:"actor_role"`
	ActorName      string    `json:"actor_name"`
	Remarks        string    `json:"remarks,omitempty"`
	DocumentNumber string    `json:"document_number"`
	EventTime      time.Time `json:"event_time"`
	IsCurrent      bool      `json:"is_current"`
}

type timelineResponse struct {
	Status string          `json:"status"`
	Events []timelineEvent `json:"events"`
}

type transitionPayload struct {
	Remarks string `json:"remarks,omitempty"`
	Consent bool   `json:"consent,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type completePayload struct {
	transitionPayload

	OTPID string `json:"otp_id"`
	Code  string `json:"code"`
}

type initiateResponse struct {
	OTPID string `json:"otp_id"`
}

type completeResponse struct {
	Status         string `json:"status"`
	DocumentNumber string `json:"document_number"`
	DocID          string `json:"doc_id"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	officerID, err := id.ParseOfficerID(chi.URLParam(r, "officerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	timeline, err := h.workflows.Timeline(r.Context(), officerID)
	if err != nil {
		h.logError(r, "load timeline", err)
		shared.WriteError(w, err)
		return
	}
	resp := timelineResponse{
		Status: string(timeline.Status()),
		Events: make([]timelineEvent, 0, len(timeline)),
	}
	for _, event := range timeline {
		resp.Events = append(resp.Events, timelineEvent{
			Action:         event.Action.String(),
			ActorRole:      event.ActorRole.String(),
			ActorName:      event.ActorName,
			Remarks:        event.Remarks,
			DocumentNumber: event.DocumentNumber.String(),
			EventTime:      event.EventTime,
			IsCurrent:      event.Current,
		})
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	req, err := h.transitionRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var payload transitionPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err)
		return
	}
	req.Remarks = payload.Remarks
	req.Consent = payload.Consent
	req.Phone = payload.Phone

	otpID, err := h.workflows.Initiate(r.Context(), req)
	if err != nil {
		h.logError(r, "initiate transition", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, initiateResponse{OTPID: otpID})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	req, err := h.transitionRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var payload completePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err)
		return
	}
	if payload.OTPID == "" || payload.Code == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "otp_id and code are required"))
		return
	}
	req.Remarks = payload.Remarks
	req.Consent = payload.Consent
	req.Phone = payload.Phone

	result, err := h.workflows.Complete(r.Context(), workflow.CompleteRequest{
		TransitionRequest: req,
		OTPID:             payload.OTPID,
		Code:              payload.Code,
	})
	if err != nil {
		h.logError(r, "complete transition", err)
		shared.WriteError(w, err)
		return
	}

	timeline, err := h.workflows.Timeline(r.Context(), req.OfficerID)
	if err != nil {
		h.logError(r, "load timeline", err)
		shared.WriteError(w, err)
		return
	}
	latest, _ := timeline.Latest()
	shared.WriteJSON(w, http.StatusOK, completeResponse{
		Status:         string(timeline.Status()),
		DocumentNumber: latest.DocumentNumber.String(),
		DocID:          result.DocID,
	})
}

func (h *Handler) transitionRequest(r *http.Request) (workflow.TransitionRequest, error) {
	officerID, err := id.ParseOfficerID(chi.URLParam(r, "officerID"))
	if err != nil {
		return workflow.TransitionRequest{}, err
	}
	action, err := workflow.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		return workflow.TransitionRequest{}, err
	}
	return workflow.TransitionRequest{OfficerID: officerID, Action: action}, nil
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		return
	}
	h.logger.WarnContext(r.Context(), op+" rejected",
		"error", err.Error(),
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
