package store

import (
	"context"
	"sort"
	"sync"

	"servicebook/internal/record"
	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. Used in tests and when no
// database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Persisted
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, rows: make(map[int64]Persisted)}
}

func (s *InMemoryStore) ListByOfficer(_ context.Context, officerID id.OfficerID, category id.Category) ([]Persisted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Persisted
	for _, row := range s.rows {
		if row.OfficerID == officerID && row.Category == category {
			out = append(out, cloneRow(row))
		}
	}
	// Map iteration order is random; return rows in insertion order.
	sortRowsByID(out)
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, officerID id.OfficerID, category id.Category, recordID int64) (Persisted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[recordID]
	if !ok || row.OfficerID != officerID || row.Category != category {
		return Persisted{}, sentinel.ErrNotFound
	}
	return cloneRow(row), nil
}

func (s *InMemoryStore) Create(_ context.Context, row Persisted) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.OfficerID == row.OfficerID && existing.Category == row.Category && existing.DedupKey == row.DedupKey {
			return 0, sentinel.ErrConflict
		}
	}
	row.ID = s.nextID
	s.nextID++
	s.rows[row.ID] = cloneRow(row)
	return row.ID, nil
}

func (s *InMemoryStore) Update(_ context.Context, row Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[row.ID]
	if !ok || existing.OfficerID != row.OfficerID || existing.Category != row.Category {
		return sentinel.ErrNotFound
	}
	s.rows[row.ID] = cloneRow(row)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, officerID id.OfficerID, category id.Category, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[recordID]
	if !ok || row.OfficerID != officerID || row.Category != category {
		return sentinel.ErrNotFound
	}
	delete(s.rows, recordID)
	return nil
}

func (s *InMemoryStore) DedupKeyExists(_ context.Context, officerID id.OfficerID, category id.Category, dedupKey string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.ID == excludeID {
			continue
		}
		if row.OfficerID == officerID && row.Category == category && row.DedupKey == dedupKey {
			return true, nil
		}
	}
	return false, nil
}

func cloneRow(row Persisted) Persisted {
	out := row
	out.FieldsBySource = make(map[record.Source]map[string]string, len(row.FieldsBySource))
	for src, fields := range row.FieldsBySource {
		m := make(map[string]string, len(fields))
		for k, v := range fields {
			m[k] = v
		}
		out.FieldsBySource[src] = m
	}
	return out
}

func sortRowsByID(rows []Persisted) {
	sort.Slice(rows, func(a, b int) bool { return rows[a].ID < rows[b].ID })
}
