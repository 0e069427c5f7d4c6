// Package poller parses poller command flags and launches the poll loop.
package poller

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/dbpoll/internal/platform/cmd"
	"github.com/louisbranch/dbpoll/internal/platform/timeouts"
	pollerapp "github.com/louisbranch/dbpoll/internal/services/poller/app"
)

// Config holds poller command configuration.
type Config struct {
	DBPath       string        `env:"DBPOLL_DB_PATH" envDefault:"data/poller.db"`
	PollInterval time.Duration `env:"DBPOLL_POLL_INTERVAL" envDefault:"1s"`
	PollCron     string        `env:"DBPOLL_POLL_CRON"`
	BatchLimit   int           `env:"DBPOLL_BATCH_LIMIT" envDefault:"0"`
	UpdateMode   string        `env:"DBPOLL_UPDATE_MODE" envDefault:"batch"`
	CycleTimeout time.Duration `env:"DBPOLL_CYCLE_TIMEOUT" envDefault:"30s"`
	MetricsAddr  string        `env:"DBPOLL_METRICS_ADDR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = timeouts.Cycle
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The customer SQLite database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Fixed poll interval")
	fs.StringVar(&cfg.PollCron, "poll-cron", cfg.PollCron, "Cron expression overriding the poll interval")
	fs.IntVar(&cfg.BatchLimit, "batch-limit", cfg.BatchLimit, "Maximum customers per poll (0 = unbounded)")
	fs.StringVar(&cfg.UpdateMode, "update-mode", cfg.UpdateMode, "Processed-flag update mode (batch, per-row)")
	fs.DurationVar(&cfg.CycleTimeout, "cycle-timeout", cfg.CycleTimeout, "Upper bound for one poll cycle")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (empty = disabled)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the poller runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePoller, func(ctx context.Context) error {
		return pollerapp.Run(ctx, pollerapp.RuntimeConfig{
			DBPath:       cfg.DBPath,
			PollInterval: cfg.PollInterval,
			PollCron:     cfg.PollCron,
			BatchLimit:   cfg.BatchLimit,
			UpdateMode:   cfg.UpdateMode,
			CycleTimeout: cfg.CycleTimeout,
			MetricsAddr:  cfg.MetricsAddr,
		})
	})
}
