package testutil

import (
	"net/http"
	"time"

	id "servicebook/pkg/domain"
	"servicebook/pkg/requestcontext"
)

// WithAuth attaches an authenticated actor to the request context,
// the same way RequireAuth populates it after token validation.
func WithAuth(req *http.Request, officerID id.OfficerID, role id.ActorRole, name string) *http.Request {
	ctx := req.Context()
	ctx = requestcontext.WithOfficerID(ctx, officerID)
	ctx = requestcontext.WithActorRole(ctx, role)
	ctx = requestcontext.WithActorName(ctx, name)
	return req.WithContext(ctx)
}

// WithSession attaches a session ID to the request context.
func WithSession(req *http.Request, sessionID id.SessionID) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithFrozenTime pins the request context clock to a fixed instant.
func WithFrozenTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
