package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the outbox behind the audit service: Append is the write path from
// domain logic, the remaining methods feed the Kafka publisher worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListUnpublished returns the oldest events not yet handed to Kafka.
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	// MarkPublished records that the worker delivered the given events.
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
