package history

// scheduler.go runs the retention job that trims old history entries.
//
// The job runs once at start, then every interval, until ctx is cancelled.
// A failed purge is logged and retried on the next tick; it never stops the
// server.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the purge job.
type RetentionConfig struct {
	RetentionDays int
	CheckInterval time.Duration
}

// StartPurgeScheduler blocks running the purge job; call it in a goroutine.
func StartPurgeScheduler(ctx context.Context, store Store, cfg RetentionConfig) {
	if cfg.RetentionDays <= 0 || cfg.CheckInterval <= 0 {
		slog.Info("history purge disabled")
		return
	}

	slog.Info("history purge scheduler started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	runPurge(ctx, store, cfg.RetentionDays, time.Now)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history purge scheduler stopped")
			return
		case <-ticker.C:
			runPurge(ctx, store, cfg.RetentionDays, time.Now)
		}
	}
}

// runPurge performs one purge cycle.
func runPurge(ctx context.Context, store Store, days int, now func() time.Time) int64 {
	start := time.Now()
	cutoff := now().AddDate(0, 0, -days)

	purged, err := store.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return 0
	}
	slog.Info("purged run history",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
