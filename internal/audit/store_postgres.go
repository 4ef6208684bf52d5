package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "servicebook/pkg/domain"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to audit_outbox and published to Kafka by the worker.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// outboxPayload is the JSON structure written to the outbox and published to
// Kafka unchanged.
type outboxPayload struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	OfficerID      string `json:"officer_id,omitempty"`
	ActorRole      string `json:"actor_role,omitempty"`
	ActorName      string `json:"actor_name,omitempty"`
	Action         string `json:"action"`
	Category       string `json:"category,omitempty"`
	RecordIdentity string `json:"record_identity,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	Reason         string `json:"reason,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

func toPayload(event Event) outboxPayload {
	p := outboxPayload{
		ID:             event.ID.String(),
		Timestamp:      event.Timestamp.Format(time.RFC3339Nano),
		ActorRole:      event.ActorRole.String(),
		ActorName:      event.ActorName,
		Action:         string(event.Action),
		Category:       event.Category.String(),
		RecordIdentity: event.RecordIdentity,
		DocumentNumber: event.DocumentNumber.String(),
		Reason:         event.Reason,
		RequestID:      event.RequestID,
	}
	if !event.OfficerID.IsNil() {
		p.OfficerID = event.OfficerID.String()
	}
	return p
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(toPayload(event))
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, "service_book", event.OfficerID.String(), payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_outbox
		  WHERE published_at IS NULL
		  ORDER BY created_at
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := fromPayloadBytes(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	for _, eventID := range ids {
		_, err := s.db.ExecContext(ctx,
			`UPDATE audit_outbox SET published_at = now() WHERE id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("mark audit event published: %w", err)
		}
	}
	return nil
}

func fromPayloadBytes(raw []byte) (Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("decode audit payload: %w", err)
	}
	event := Event{
		ActorName:      p.ActorName,
		Action:         Action(p.Action),
		RecordIdentity: p.RecordIdentity,
		Reason:         p.Reason,
		RequestID:      p.RequestID,
	}
	if eventID, err := uuid.Parse(p.ID); err == nil {
		event.ID = eventID
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		event.Timestamp = ts
	}
	if p.OfficerID != "" {
		if officerID, err := uuid.Parse(p.OfficerID); err == nil {
			event.OfficerID = id.OfficerID(officerID)
		}
	}
	event.ActorRole = id.ActorRole(p.ActorRole)
	event.Category = id.Category(p.Category)
	event.DocumentNumber = id.DocumentNumber(p.DocumentNumber)
	return event, nil
}
