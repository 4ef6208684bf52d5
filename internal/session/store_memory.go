package session

import (
	"context"
	"sync"

	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// InMemoryStore is the in-memory session store used in tests and when Redis
// is not configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[id.SessionID]Session)}
}

func (s *InMemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, sentinel.ErrNotFound
	}
	return session, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
