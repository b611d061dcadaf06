package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func entryAt(name string, at time.Time) Entry {
	return Entry{ID: uuid.New(), FileName: name, Outcome: "success", CreatedAt: at}
}

func TestMemoryStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.csv", "b.csv", "c.csv"} {
		if err := store.Record(ctx, entryAt(name, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].FileName != "c.csv" || got[1].FileName != "b.csv" {
		t.Errorf("Recent(2) = %+v", got)
	}

	all, _ := store.Recent(ctx, 0)
	if len(all) != 3 {
		t.Errorf("Recent(0) returned %d entries, want 3", len(all))
	}
}

func TestMemoryStore_Bounded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	now := time.Now()

	for _, name := range []string{"a", "b", "c"} {
		_ = store.Record(ctx, entryAt(name, now))
	}

	got, _ := store.Recent(ctx, 10)
	if len(got) != 2 || got[0].FileName != "c" || got[1].FileName != "b" {
		t.Errorf("bounded store kept %+v", got)
	}
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = store.Record(ctx, entryAt("old", now.AddDate(0, 0, -40)))
	_ = store.Record(ctx, entryAt("recent", now.AddDate(0, 0, -5)))

	purged, err := store.Purge(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	got, _ := store.Recent(ctx, 10)
	if len(got) != 1 || got[0].FileName != "recent" {
		t.Errorf("remaining = %+v", got)
	}
}

func TestRunPurge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = store.Record(ctx, entryAt("old", now.AddDate(0, 0, -91)))
	_ = store.Record(ctx, entryAt("new", now.AddDate(0, 0, -1)))

	if got := runPurge(ctx, store, 90, func() time.Time { return now }); got != 1 {
		t.Errorf("runPurge() = %d, want 1", got)
	}
}

func TestStartPurgeScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartPurgeScheduler(ctx, NewMemoryStore(1), RetentionConfig{RetentionDays: 1, CheckInterval: time.Hour})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
