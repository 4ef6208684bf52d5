// Package handler exposes record CRUD and canonical listing over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/record"
	"servicebook/internal/transport/http/shared"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/requestcontext"
)

// Service defines the record operations the handler delegates to.
type Service interface {
	List(ctx context.Context, officerID id.OfficerID, category id.Category) ([]record.Record, error)
	Create(ctx context.Context, officerID id.OfficerID, category id.Category, fields map[string]string, actor record.Source) (record.Record, error)
	Update(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64, saved map[string]string, edited []string, actor record.Source) (record.Record, error)
	Delete(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) error
}

type Handler struct {
	records   Service
	logger    *slog.Logger
	validator middleware.JWTValidator
}

func New(records Service, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{records: records, logger: logger, validator: validator}
}

// Register mounts the record routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/officers/{officerID}/records/{category}", h.handleList)
		r.Post("/officers/{officerID}/records/{category}", h.handleCreate)
		r.Put("/officers/{officerID}/records/{category}/{recordID}", h.handleUpdate)
		r.Delete("/officers/{officerID}/records/{category}/{recordID}", h.handleDelete)
	})
}

type saveRequest struct {
	Fields map[string]string `json:"fields"`
	Edited []string          `json:"edited,omitempty"`
}

type recordResponse struct {
	Identity  string            `json:"identity"`
	Category  string            `json:"category"`
	Fields    map[string]string `json:"fields"`
	Sources   map[string]string `json:"field_sources"`
	Display   string            `json:"display_source"`
	Persisted bool              `json:"is_persisted"`
}

type listResponse struct {
	Records []recordResponse `json:"records"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	officerID, category, err := h.scope(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.records.List(r.Context(), officerID, category)
	if err != nil {
		h.logError(r, "list records", err)
		shared.WriteError(w, err)
		return
	}
	resp := listResponse{Records: make([]recordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	officerID, category, err := h.scope(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req saveRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.records.Create(r.Context(), officerID, category, req.Fields, actorSource(r.Context()))
	if err != nil {
		h.logError(r, "create record", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	officerID, category, err := h.scope(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	recordID, err := parseRecordID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req saveRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.records.Update(r.Context(), officerID, category, recordID, req.Fields, req.Edited, actorSource(r.Context()))
	if err != nil {
		h.logError(r, "update record", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	officerID, category, err := h.scope(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	recordID, err := parseRecordID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.records.Delete(r.Context(), officerID, category, recordID); err != nil {
		h.logError(r, "delete record", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(r *http.Request) (id.OfficerID, id.Category, error) {
	officerID, err := id.ParseOfficerID(chi.URLParam(r, "officerID"))
	if err != nil {
		return id.OfficerID{}, "", err
	}
	category, err := id.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		return id.OfficerID{}, "", err
	}
	return officerID, category, nil
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

func parseRecordID(r *http.Request) (int64, error) {
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil || recordID <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid record id")
	}
	return recordID, nil
}

func actorSource(ctx context.Context) record.Source {
	if requestcontext.ActorRole(ctx) == id.RoleApprover {
		return record.SourceApprover
	}
	return record.SourceUser
}

func toResponse(rec record.Record) recordResponse {
	sources := make(map[string]string, len(rec.Sources))
	for name, src := range rec.Sources {
		sources[name] = string(src)
	}
	return recordResponse{
		Identity:  rec.Identity.String(),
		Category:  rec.Category.String(),
		Fields:    rec.Fields,
		Sources:   sources,
		Display:   string(rec.DisplaySource()),
		Persisted: rec.Persisted,
	}
}
