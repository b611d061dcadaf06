package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS run_history (
	id             UUID PRIMARY KEY,
	file_name      TEXT NOT NULL,
	manual_mapping BOOLEAN NOT NULL DEFAULT FALSE,
	row_count      INTEGER NOT NULL DEFAULT 0,
	student_count  INTEGER NOT NULL DEFAULT 0,
	outcome        TEXT NOT NULL,
	error_code     TEXT,
	duration_ms    BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS run_history_created_at_idx ON run_history (created_at DESC);
`

// PostgresStore keeps history in a run_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create run_history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_history
			(id, file_name, manual_mapping, row_count, student_count, outcome, error_code, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pgtype.UUID{Bytes: e.ID, Valid: true},
		e.FileName,
		e.ManualMapping,
		int32(e.Rows),
		int32(e.Students),
		e.Outcome,
		pgtype.Text{String: e.ErrorCode, Valid: e.ErrorCode != ""},
		e.DurationMS,
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, manual_mapping, row_count, student_count, outcome, error_code, duration_ms, created_at
		FROM run_history
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run history: %w", err)
	}
	return out, nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var (
		e         Entry
		id        pgtype.UUID
		rowCount  int32
		students  int32
		errorCode pgtype.Text
		created   pgtype.Timestamptz
	)
	if err := rows.Scan(&id, &e.FileName, &e.ManualMapping, &rowCount, &students, &e.Outcome, &errorCode, &e.DurationMS, &created); err != nil {
		return Entry{}, fmt.Errorf("scan run history: %w", err)
	}
	e.ID = id.Bytes
	e.Rows = int(rowCount)
	e.Students = int(students)
	e.ErrorCode = errorCode.String
	e.CreatedAt = created.Time
	return e, nil
}

func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM run_history WHERE created_at < $1`,
		pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge run history: %w", err)
	}
	return tag.RowsAffected(), nil
}
