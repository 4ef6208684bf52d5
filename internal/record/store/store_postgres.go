package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
	"servicebook/pkg/requestcontext"
)

// PostgresStore persists records in PostgreSQL. The per-source field maps are
// stored as one JSONB column keyed by source.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

func (s *PostgresStore) ListByOfficer(ctx context.Context, officerID id.OfficerID, category id.Category) ([]Persisted, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields_by_source, dedup_key
		   FROM records
		  WHERE officer_id = $1 AND category = $2
		  ORDER BY id`,
		uuid.UUID(officerID), category.String())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Persisted
	for rows.Next() {
		row := Persisted{OfficerID: officerID, Category: category}
		var payload []byte
		if err := rows.Scan(&row.ID, &payload, &row.DedupKey); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(payload, &row.FieldsBySource); err != nil {
			return nil, fmt.Errorf("decode record fields: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) (Persisted, error) {
	row := Persisted{ID: recordID, OfficerID: officerID, Category: category}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fields_by_source, dedup_key
		   FROM records
		  WHERE id = $1 AND officer_id = $2 AND category = $3`,
		recordID, uuid.UUID(officerID), category.String()).Scan(&payload, &row.DedupKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Persisted{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Persisted{}, fmt.Errorf("get record: %w", err)
	}
	if err := json.Unmarshal(payload, &row.FieldsBySource); err != nil {
		return Persisted{}, fmt.Errorf("decode record fields: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) Create(ctx context.Context, row Persisted) (int64, error) {
	payload, err := json.Marshal(row.FieldsBySource)
	if err != nil {
		return 0, fmt.Errorf("encode record fields: %w", err)
	}
	var recordID int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO records (officer_id, category, fields_by_source, dedup_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING id`,
		uuid.UUID(row.OfficerID), row.Category.String(), payload, row.DedupKey,
		requestcontext.Now(ctx)).Scan(&recordID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, sentinel.ErrConflict
		}
		return 0, fmt.Errorf("create record: %w", err)
	}
	return recordID, nil
}

func (s *PostgresStore) Update(ctx context.Context, row Persisted) error {
	payload, err := json.Marshal(row.FieldsBySource)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records
		    SET fields_by_source = $1, dedup_key = $2, updated_at = $3
		  WHERE id = $4 AND officer_id = $5 AND category = $6`,
		payload, row.DedupKey, requestcontext.Now(ctx),
		row.ID, uuid.UUID(row.OfficerID), row.Category.String())
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE id = $1 AND officer_id = $2 AND category = $3`,
		recordID, uuid.UUID(officerID), category.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DedupKeyExists(ctx context.Context, officerID id.OfficerID, category id.Category, dedupKey string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM records
		     WHERE officer_id = $1 AND category = $2 AND dedup_key = $3 AND id <> $4
		 )`,
		uuid.UUID(officerID), category.String(), dedupKey, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check dedup key: %w", err)
	}
	return exists, nil
}

// isUniqueViolation detects the records_dedup constraint without importing
// driver-specific error types at every call site.
func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var st sqlState
	return errors.As(err, &st) && st.SQLState() == pgUniqueViolation
}
