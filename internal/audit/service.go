package audit

import (
	"context"

	"github.com/google/uuid"

	"servicebook/pkg/requestcontext"
)

// Service captures structured audit events. It is append-only and uses the
// outbox store for persistence so tests can swap sinks easily.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Emit persists one audit event, filling in id, timestamp and request
// correlation from context when the caller left them zero.
func (s *Service) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return s.store.Append(ctx, event)
}
