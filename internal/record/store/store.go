// Package store persists officer records. Each row keeps a record's fields
// namespaced by the system that supplied them; the reconciliation engine
// flattens that layout back into a single field/provenance view.
package store

import (
	"context"

	"servicebook/internal/record"
	id "servicebook/pkg/domain"
)

// Persisted is one stored record row.
type Persisted struct {
	ID             int64
	OfficerID      id.OfficerID
	Category       id.Category
	FieldsBySource map[record.Source]map[string]string
	DedupKey       string
}

// Raw converts a stored row into the reconciliation engine's input shape.
func (p Persisted) Raw() record.RawPersisted {
	return record.RawPersisted{
		Identity:       record.PersistedIdentity(p.ID),
		FieldsBySource: p.FieldsBySource,
	}
}

// Store is the persistence boundary for officer records.
type Store interface {
	// ListByOfficer returns all rows for one officer and category.
	ListByOfficer(ctx context.Context, officerID id.OfficerID, category id.Category) ([]Persisted, error)
	// Get returns one row or sentinel.ErrNotFound.
	Get(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) (Persisted, error)
	// Create inserts a row and returns the server-assigned identity.
	// Returns sentinel.ErrConflict when the dedup key is already taken.
	Create(ctx context.Context, row Persisted) (int64, error)
	// Update replaces a row's field maps and dedup key.
	Update(ctx context.Context, row Persisted) error
	// Delete removes a row. The service layer enforces the registry-sourced
	// deletion guard before calling this.
	Delete(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) error
	// DedupKeyExists reports whether any persisted row in the category
	// carries the key, optionally excluding one row id (for updates).
	DedupKeyExists(ctx context.Context, officerID id.OfficerID, category id.Category, dedupKey string, excludeID int64) (bool, error)
}
