package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/dbpoll/internal/platform/telemetry/metrics"
	pollersqlite "github.com/louisbranch/dbpoll/internal/services/poller/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// RuntimeConfig controls poller startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	DBPath       string
	PollInterval time.Duration
	PollCron     string
	BatchLimit   int
	UpdateMode   string
	CycleTimeout time.Duration
	MetricsAddr  string
}

const defaultPollerDB = "data/poller.db"

// Run opens the customer store and drives the poll loop until ctx is done.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultPollerDB
	}
	mode, err := ParseUpdateMode(cfg.UpdateMode)
	if err != nil {
		return err
	}
	schedule, err := NewSchedule(cfg.PollInterval, cfg.PollCron)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create poller storage dir: %w", err)
		}
	}
	store, err := pollersqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open poller sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close poller sqlite store: %v", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	loopMetrics, err := NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register poller metrics: %w", err)
	}

	loop := New(
		NewPoller(store, cfg.BatchLimit),
		NewWriter(store, mode),
		LogObserver(log.Printf),
		Config{
			Schedule:     schedule,
			CycleTimeout: cfg.CycleTimeout,
		},
		loopMetrics,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		group.Go(func() error {
			return metrics.Serve(groupCtx, addr, registry)
		})
	}
	group.Go(func() error {
		return loop.Run(groupCtx)
	})
	return group.Wait()
}
