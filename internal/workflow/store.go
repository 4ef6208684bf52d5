package workflow

import (
	"context"

	id "servicebook/pkg/domain"
)

// Store persists officer status timelines. Events are append-only; the
// implementation clears the previous event's current flag when appending and
// locks the officer's consent flag once the first event lands.
type Store interface {
	// Timeline returns the officer's full history, oldest first. An officer
	// with no events gets an empty timeline, not an error.
	Timeline(ctx context.Context, officerID id.OfficerID) (Timeline, error)

	// Append adds one event as the new current event.
	Append(ctx context.Context, officerID id.OfficerID, event StatusEvent) error

	// OriginalDocumentNumber resolves the document number of the officer's
	// first submission. Returns sentinel.ErrNotFound when no submission
	// exists yet.
	OriginalDocumentNumber(ctx context.Context, officerID id.OfficerID) (id.DocumentNumber, error)

	// ConsentLocked reports whether the officer's declaration of consent has
	// been permanently locked by a prior event.
	ConsentLocked(ctx context.Context, officerID id.OfficerID) (bool, error)
}
