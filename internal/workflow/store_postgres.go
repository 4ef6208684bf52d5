package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// PostgresStore persists status timelines in PostgreSQL. Appends run in a
// transaction so clearing the previous current flag, inserting, and locking
// consent land together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Timeline(ctx context.Context, officerID id.OfficerID) (Timeline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, actor_role, actor_name, remarks, document_number, event_time, is_current
		   FROM status_events
		  WHERE officer_id = $1
		  ORDER BY id`,
		uuid.UUID(officerID))
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	defer rows.Close()

	var timeline Timeline
	for rows.Next() {
		var event StatusEvent
		var action, role, docNumber string
		if err := rows.Scan(&action, &role, &event.ActorName, &event.Remarks, &docNumber, &event.EventTime, &event.Current); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		event.Action = Action(action)
		event.ActorRole = id.ActorRole(role)
		event.DocumentNumber = id.DocumentNumber(docNumber)
		timeline = append(timeline, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	return timeline, nil
}

func (s *PostgresStore) Append(ctx context.Context, officerID id.OfficerID, event StatusEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE status_events SET is_current = FALSE WHERE officer_id = $1 AND is_current`,
		uuid.UUID(officerID)); err != nil {
		return fmt.Errorf("clear current event: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO status_events (officer_id, action, actor_role, actor_name, remarks, document_number, event_time, is_current)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
		uuid.UUID(officerID), event.Action.String(), event.ActorRole.String(),
		event.ActorName, event.Remarks, event.DocumentNumber.String(), event.EventTime); err != nil {
		return fmt.Errorf("append status event: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO officers (officer_id, consent_locked, updated_at)
		 VALUES ($1, TRUE, $2)
		 ON CONFLICT (officer_id) DO UPDATE SET consent_locked = TRUE, updated_at = EXCLUDED.updated_at`,
		uuid.UUID(officerID), event.EventTime); err != nil {
		return fmt.Errorf("lock consent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) OriginalDocumentNumber(ctx context.Context, officerID id.OfficerID) (id.DocumentNumber, error) {
	var docNumber string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_number
		   FROM status_events
		  WHERE officer_id = $1 AND action = $2 AND document_number <> ''
		  ORDER BY id
		  LIMIT 1`,
		uuid.UUID(officerID), ActionSubmit.String()).Scan(&docNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve original document number: %w", err)
	}
	return id.DocumentNumber(docNumber), nil
}

func (s *PostgresStore) ConsentLocked(ctx context.Context, officerID id.OfficerID) (bool, error) {
	var locked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT consent_locked FROM officers WHERE officer_id = $1`,
		uuid.UUID(officerID)).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load consent flag: %w", err)
	}
	return locked, nil
}
