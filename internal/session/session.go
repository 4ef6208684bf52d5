// Package session replaces ambient actor state with an explicit session
// object: the actor's role, officer id, display name and phone are loaded
// once on entry and cleared on exit, never kept in globals.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
	"servicebook/pkg/requestcontext"
)

// TTL bounds how long an idle session stays loadable.
const TTL = 8 * time.Hour

// Session carries one actor's working state for the duration of a visit.
type Session struct {
	ID        id.SessionID `json:"id"`
	OfficerID id.OfficerID `json:"officer_id"`
	Role      id.ActorRole `json:"role"`
	ActorName string       `json:"actor_name"`
	Phone     string       `json:"phone"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Expired reports whether the session has passed its deadline.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists sessions for the duration of their TTL.
type Store interface {
	Save(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID id.SessionID) (Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	return &Service{store: store}, nil
}

// Start loads a new session on entry.
func (s *Service) Start(ctx context.Context, officerID id.OfficerID, role id.ActorRole, actorName, phone string) (Session, error) {
	if !role.IsValid() {
		return Session{}, dErrors.New(dErrors.CodeValidation, "invalid actor role")
	}
	if actorName == "" {
		return Session{}, dErrors.New(dErrors.CodeValidation, "actor name is required")
	}
	now := requestcontext.Now(ctx)
	session := Session{
		ID:        id.SessionID(uuid.New()),
		OfficerID: officerID,
		Role:      role,
		ActorName: actorName,
		Phone:     phone,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}
	return session, nil
}

// Get loads an active session. Expired or unknown sessions surface as
// unauthorized so the caller re-enters.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	if session.Expired(requestcontext.Now(ctx)) {
		_ = s.store.Delete(ctx, sessionID)
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}
	return session, nil
}

// End clears the session on exit. Ending an already-cleared session is fine.
func (s *Service) End(ctx context.Context, sessionID id.SessionID) error {
	err := s.store.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear session")
	}
	return nil
}
