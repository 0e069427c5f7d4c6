package poller

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("poller", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/poller.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/poller.db")
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("poll interval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.UpdateMode != "batch" {
		t.Fatalf("update mode = %q, want batch", cfg.UpdateMode)
	}
	if cfg.CycleTimeout != 30*time.Second {
		t.Fatalf("cycle timeout = %v, want 30s", cfg.CycleTimeout)
	}
	if cfg.MetricsAddr != "" || cfg.PollCron != "" || cfg.BatchLimit != 0 {
		t.Fatalf("unexpected optional settings: %+v", cfg)
	}
}

func TestParseConfig_ParsesEnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("poller", flag.ContinueOnError)
	t.Setenv("DBPOLL_POLL_INTERVAL", "250ms")
	t.Setenv("DBPOLL_UPDATE_MODE", "per-row")
	t.Setenv("DBPOLL_DB_PATH", "/tmp/env.db")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/flag.db", "-batch-limit", "50", "-metrics-addr", ":9464"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll interval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.UpdateMode != "per-row" {
		t.Fatalf("update mode = %q, want per-row", cfg.UpdateMode)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("db path = %q, want flag override", cfg.DBPath)
	}
	if cfg.BatchLimit != 50 {
		t.Fatalf("batch limit = %d, want 50", cfg.BatchLimit)
	}
	if cfg.MetricsAddr != ":9464" {
		t.Fatalf("metrics addr = %q, want :9464", cfg.MetricsAddr)
	}
}

func TestParseConfig_RejectsInvalidEnv(t *testing.T) {
	fs := flag.NewFlagSet("poller", flag.ContinueOnError)
	t.Setenv("DBPOLL_POLL_INTERVAL", "soon")

	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for invalid poll interval")
	}
}

func TestRun_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, Config{
		DBPath:       filepath.Join(t.TempDir(), "poller.db"),
		PollInterval: time.Second,
		UpdateMode:   "batch",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRun_InvalidUpdateMode(t *testing.T) {
	err := Run(context.Background(), Config{
		DBPath:     filepath.Join(t.TempDir(), "poller.db"),
		UpdateMode: "inline",
	})
	if err == nil {
		t.Fatal("expected update mode error")
	}
}
