package history_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reshelf/internal/history"
	"reshelf/internal/services"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenCreatesDatabase(t *testing.T) {
	store := openStore(t)
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
	if filepath.Base(store.Path()) != history.FileName {
		t.Fatalf("unexpected database name %q", store.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	store, err := history.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	batch, err := store.BeginBatch(ctx, "/src", false, "skip")
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := history.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	batches, err := reopened.RecentBatches(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].ID != batch.ID {
		t.Fatalf("batches after reopen = %+v", batches)
	}
}

func TestBatchLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	batch, err := store.BeginBatch(ctx, "/downloads", true, "keep_both")
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if len(batch.ID) != 36 {
		t.Fatalf("expected uuid batch id, got %q", batch.ID)
	}

	entries := []history.Entry{
		{BatchID: batch.ID, Source: "/downloads/a.mkv", Destination: "/lib/A (2000)/A (2000).mkv", Action: "moved", Kind: "movie", Title: "A", Success: true},
		{BatchID: batch.ID, Source: "/downloads/b.mkv", Action: "failed", Kind: "episode", Title: "B", Rollback: true, Error: "disk full"},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.FinishBatch(ctx, batch.ID); err != nil {
		t.Fatalf("FinishBatch: %v", err)
	}

	batches, err := store.RecentBatches(ctx, 5)
	if err != nil {
		t.Fatalf("RecentBatches: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	got := batches[0]
	if got.Moves != 2 || got.Failures != 1 || !got.DryRun || got.Policy != "keep_both" || got.SourceRoot != "/downloads" {
		t.Fatalf("unexpected batch %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("finished_at should be set")
	}

	moves, err := store.Moves(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Moves: %v", err)
	}
	if len(moves) != 2 || moves[0].Source != "/downloads/a.mkv" || !moves[0].Success {
		t.Fatalf("unexpected moves %+v", moves)
	}
	if !moves[1].Rollback || moves[1].Error != "disk full" || moves[1].Success {
		t.Fatalf("unexpected failed entry %+v", moves[1])
	}
	if time.Since(moves[0].CreatedAt) > time.Minute {
		t.Fatalf("created_at not set: %v", moves[0].CreatedAt)
	}
}

func TestRecentBatchesNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	first, _ := store.BeginBatch(ctx, "/a", false, "skip")
	time.Sleep(5 * time.Millisecond)
	second, _ := store.BeginBatch(ctx, "/b", false, "skip")

	batches, err := store.RecentBatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].ID != second.ID {
		t.Fatalf("expected newest batch %s, got %+v (first %s)", second.ID, batches, first.ID)
	}
}

func TestResolveBatchID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	batch, _ := store.BeginBatch(ctx, "/a", false, "skip")

	id, err := store.ResolveBatchID(ctx, batch.ID[:8])
	if err != nil || id != batch.ID {
		t.Fatalf("ResolveBatchID = %q, %v", id, err)
	}
	if _, err := store.ResolveBatchID(ctx, "zzzzzzzz"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.ResolveBatchID(ctx, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordRequiresBatch(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Entry{Source: "/a.mkv"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
