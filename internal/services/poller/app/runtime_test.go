package app

import (
	"context"
	"path/filepath"
	"testing"

	pollersqlite "github.com/louisbranch/dbpoll/internal/services/poller/storage/sqlite"
)

func TestRunProcessesPendingCustomersBeforeShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "poller.db")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First run creates the directory and schema.
	if err := Run(ctx, RuntimeConfig{DBPath: dbPath}); err != nil {
		t.Fatalf("initial run: %v", err)
	}

	store, err := pollersqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	insertTestCustomer(t, store, "Alice")
	insertTestCustomer(t, store, "Bob")
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// The immediate first tick runs even though ctx is already done.
	if err := Run(ctx, RuntimeConfig{DBPath: dbPath, UpdateMode: "per-row"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err = pollersqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	count, err := store.CountUnprocessed(context.Background())
	if err != nil {
		t.Fatalf("count unprocessed: %v", err)
	}
	if count != 0 {
		t.Fatalf("unprocessed = %d, want 0", count)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "poller.db")
	cases := []struct {
		name string
		cfg  RuntimeConfig
	}{
		{name: "update mode", cfg: RuntimeConfig{DBPath: dbPath, UpdateMode: "inline"}},
		{name: "cron", cfg: RuntimeConfig{DBPath: dbPath, PollCron: "every minute"}},
		{name: "interval", cfg: RuntimeConfig{DBPath: dbPath, PollInterval: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Run(context.Background(), tc.cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}
