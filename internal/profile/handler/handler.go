// Package handler exposes the composite officer profile.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/profile"
	"servicebook/internal/transport/http/shared"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/requestcontext"
)

// Service defines the profile operations the handler delegates to.
type Service interface {
	Fetch(ctx context.Context, officerID id.OfficerID) (profile.Profile, error)
}

type Handler struct {
	profiles  Service
	logger    *slog.Logger
	validator middleware.JWTValidator
}

func New(profiles Service, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{profiles: profiles, logger: logger, validator: validator}
}

// Register mounts the profile route.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/officers/{officerID}/profile", h.handleFetch)
	})
}

type profileResponse struct {
	OfficerID     string                         `json:"officer_id"`
	Personal      map[string]string              `json:"personal"`
	Records       map[string][]map[string]string `json:"records"`
	Status        string                         `json:"status"`
	ConsentLocked bool                           `json:"consent_locked"`
	Completion    int                            `json:"completion"`
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	officerID, err := id.ParseOfficerID(chi.URLParam(r, "officerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.profiles.Fetch(r.Context(), officerID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(r.Context(), "fetch profile failed",
				"error", err.Error(),
				"request_id", requestcontext.RequestID(r.Context()),
			)
		}
		shared.WriteError(w, err)
		return
	}

	records := make(map[string][]map[string]string, len(p.Records))
	for category, list := range p.Records {
		rows := make([]map[string]string, 0, len(list))
		for _, rec := range list {
			row := map[string]string{
				"identity":       rec.Identity.String(),
				"display_source": string(rec.DisplaySource()),
			}
			for name, value := range rec.Fields {
				row[name] = value
			}
			rows = append(rows, row)
		}
		records[category.String()] = rows
	}

	shared.WriteJSON(w, http.StatusOK, profileResponse{
		OfficerID:     p.OfficerID.String(),
		Personal:      p.Personal,
		Records:       records,
		Status:        string(p.Status),
		ConsentLocked: p.ConsentLocked,
		Completion:    p.Completion,
	})
}
