// Package history keeps a log of chart runs: who uploaded what file, how many
// students came out of it and whether it failed. Only run metadata is kept;
// student records and charts are never stored.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry describes one finished run.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	ManualMapping bool      `json:"manual_mapping"`
	Rows          int       `json:"rows"`
	Students      int       `json:"students"`
	Outcome       string    `json:"outcome"`
	ErrorCode     string    `json:"error_code,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists run history.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// Purge deletes entries created before cutoff and returns how many.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultRecentLimit caps Recent when the caller passes a non-positive limit.
const DefaultRecentLimit = 50
