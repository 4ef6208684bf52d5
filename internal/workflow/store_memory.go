package workflow

import (
	"context"
	"sync"

	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// InMemoryStore is the in-memory Store used in tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	timelines map[id.OfficerID]Timeline
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{timelines: make(map[id.OfficerID]Timeline)}
}

func (s *InMemoryStore) Timeline(_ context.Context, officerID id.OfficerID) (Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	timeline := s.timelines[officerID]
	out := make(Timeline, len(timeline))
	copy(out, timeline)
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, officerID id.OfficerID, event StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	timeline := s.timelines[officerID]
	for i := range timeline {
		timeline[i].Current = false
	}
	event.Current = true
	s.timelines[officerID] = append(timeline, event)
	return nil
}

func (s *InMemoryStore) OriginalDocumentNumber(_ context.Context, officerID id.OfficerID) (id.DocumentNumber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.timelines[officerID] {
		if event.Action == ActionSubmit && !event.DocumentNumber.IsNil() {
			return event.DocumentNumber, nil
		}
	}
	return "", sentinel.ErrNotFound
}

func (s *InMemoryStore) ConsentLocked(_ context.Context, officerID id.OfficerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timelines[officerID]) > 0, nil
}
