package document

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"servicebook/internal/signing"
	"servicebook/pkg/platform/sentinel"
)

// InMemoryStore is the in-memory document store used in tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	signed  map[signing.SignedRef][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string][]byte),
		signed:  make(map[signing.SignedRef][]byte),
	}
}

func (s *InMemoryStore) Upload(_ context.Context, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := uuid.NewString()
	s.objects[docID] = append([]byte(nil), content...)
	return docID, nil
}

func (s *InMemoryStore) Fetch(_ context.Context, docID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.objects[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

func (s *InMemoryStore) PersistSigned(_ context.Context, ref signing.SignedRef, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signed[ref] = append([]byte(nil), content...)
	return nil
}

func (s *InMemoryStore) FetchSigned(_ context.Context, ref signing.SignedRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.signed[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}
