// Package handler exposes the session entry and exit endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/session"
	"servicebook/internal/transport/http/shared"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/requestcontext"
)

// Service defines the session operations the handler delegates to.
type Service interface {
	Start(ctx context.Context, officerID id.OfficerID, role id.ActorRole, actorName, phone string) (session.Session, error)
	End(ctx context.Context, sessionID id.SessionID) error
}

// TokenIssuer mints the bearer token returned on entry.
type TokenIssuer interface {
	IssueToken(claims middleware.Claims, ttl time.Duration, now time.Time) (string, error)
}

type Handler struct {
	sessions  Service
	issuer    TokenIssuer
	logger    *slog.Logger
	validator middleware.JWTValidator
}

func New(sessions Service, issuer TokenIssuer, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{sessions: sessions, issuer: issuer, logger: logger, validator: validator}
}

// Register mounts the session routes. Entry is unauthenticated; exit requires
// the token issued on entry.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.handleStart)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Delete("/sessions", h.handleEnd)
	})
}

type startRequest struct {
	OfficerID string `json:"officer_id"`
	Role      string `json:"role"`
	ActorName string `json:"actor_name"`
	Phone     string `json:"phone,omitempty"`
}

type startResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	officerID, err := id.ParseOfficerID(req.OfficerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	role, err := id.ParseActorRole(req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	started, err := h.sessions.Start(r.Context(), officerID, role, req.ActorName, req.Phone)
	if err != nil {
		h.logger.WarnContext(r.Context(), "session start rejected",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}

	token, err := h.issuer.IssueToken(middleware.Claims{
		OfficerID: started.OfficerID,
		SessionID: started.ID,
		Role:      started.Role,
		ActorName: started.ActorName,
	}, session.TTL, requestcontext.Now(r.Context()))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token issue failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, startResponse{
		SessionID: started.ID.String(),
		Token:     token,
		ExpiresAt: started.ExpiresAt,
	})
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := requestcontext.SessionID(r.Context())
	if sessionID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token carries no session id"))
		return
	}
	if err := h.sessions.End(r.Context(), sessionID); err != nil {
		h.logger.ErrorContext(r.Context(), "session end failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
