// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets actor identity and request metadata; services read them
// without importing net/http. Tests inject values directly.
//
// Usage in services (read values):
//
//	officerID := requestcontext.OfficerID(ctx)
//	role := requestcontext.ActorRole(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithOfficerID(ctx, officerID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
package requestcontext

import (
	"context"
	"time"

	id "servicebook/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	officerIDKey   struct{}
	sessionIDKey   struct{}
	actorRoleKey   struct{}
	actorNameKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyOfficerID   = officerIDKey{}
	ContextKeySessionID   = sessionIDKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyActorName   = actorNameKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// OfficerID retrieves the officer whose service book the request targets.
// Returns the zero value (nil UUID) if not set.
func OfficerID(ctx context.Context) id.OfficerID {
	if officerID, ok := ctx.Value(ContextKeyOfficerID).(id.OfficerID); ok {
		return officerID
	}
	return id.OfficerID{}
}

// WithOfficerID injects an officer id into the context.
func WithOfficerID(ctx context.Context, officerID id.OfficerID) context.Context {
	return context.WithValue(ctx, ContextKeyOfficerID, officerID)
}

// SessionID retrieves the session id from the context.
func SessionID(ctx context.Context) id.SessionID {
	if sessionID, ok := ctx.Value(ContextKeySessionID).(id.SessionID); ok {
		return sessionID
	}
	return id.SessionID{}
}

// WithSessionID injects a session id into the context.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// ActorRole retrieves the authenticated actor's role. Empty when unset.
func ActorRole(ctx context.Context) id.ActorRole {
	if role, ok := ctx.Value(ContextKeyActorRole).(id.ActorRole); ok {
		return role
	}
	return ""
}

// WithActorRole injects an actor role into the context.
func WithActorRole(ctx context.Context, role id.ActorRole) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// ActorName retrieves the authenticated actor's display name, required by the
// signing protocol's OTP and signature requests.
func ActorName(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyActorName).(string); ok {
		return name
	}
	return ""
}

// WithActorName injects an actor name into the context.
func WithActorName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyActorName, name)
}

// RequestID retrieves the request correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
