package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newSqlite(t *testing.T) *SqliteStorage {
	t.Helper()
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSqliteStorageRunStore(t *testing.T) {
	testRunStore(t, newSqlite(t))
}

func TestSqliteStorageRecordReplaces(t *testing.T) {
	storage := newSqlite(t)
	ctx := context.Background()

	run := NewRunRecord("o", "r", "main")
	if err := storage.Record(ctx, run.Failed(errors.New("first"), time.Second)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := storage.Record(ctx, run.Succeeded(1, 0, 2, 2, time.Second)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	runs, err := storage.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != RunSucceeded || runs[0].Error != "" {
		t.Errorf("expected replaced successful run, got %+v", runs[0])
	}
}

func TestSqliteStoragePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	ctx := context.Background()

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	run := NewRunRecord("o", "r", "main").WithBackend("openrouter", "gpt-4o-mini").Succeeded(2, 1, 10, 12, 1500*time.Millisecond)
	if err := storage.Record(ctx, run); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	storage.Close()

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run after reopen")
	}
	if *got != run {
		t.Errorf("run mismatch after reopen:\nwant %+v\ngot  %+v", run, *got)
	}
}

func TestSqliteStoragePing(t *testing.T) {
	storage := newSqlite(t)
	if err := storage.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
