// Package seed parses seed command flags and inserts customer rows for the
// poller to pick up.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pollersqlite "github.com/louisbranch/dbpoll/internal/services/poller/storage/sqlite"
)

const defaultDBPath = "data/poller.db"

// DefaultNames are the customers inserted when no -names flag is given.
var DefaultNames = []string{"Alice", "Bob"}

// Config holds seed command configuration.
type Config struct {
	DBPath  string
	Names   []string
	Status  bool
	Verbose bool
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	dbPath := envOrDefault(lookup, []string{"DBPOLL_DB_PATH"}, defaultDBPath)
	names := strings.Join(DefaultNames, ",")
	var status bool
	var verbose bool

	fs.StringVar(&dbPath, "db-path", dbPath, "customer SQLite database path")
	fs.StringVar(&names, "names", names, "comma-separated customer names to insert")
	fs.BoolVar(&status, "status", false, "print the unprocessed customer count instead of inserting")
	fs.BoolVar(&verbose, "v", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:  strings.TrimSpace(dbPath),
		Names:   splitNames(names),
		Status:  status,
		Verbose: verbose,
	}
	if cfg.DBPath == "" {
		return Config{}, errors.New("db path is required")
	}
	if !cfg.Status && len(cfg.Names) == 0 {
		return Config{}, errors.New("at least one customer name is required")
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := pollersqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "close store: %v\n", closeErr)
		}
	}()

	if !cfg.Status {
		for _, name := range cfg.Names {
			id, err := store.InsertCustomer(ctx, name)
			if err != nil {
				return fmt.Errorf("insert customer %q: %w", name, err)
			}
			if cfg.Verbose {
				fmt.Fprintf(out, "inserted customer %d %s\n", id, name)
			}
		}
	}

	pending, err := store.CountUnprocessed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d unprocessed customers in %s\n", pending, cfg.DBPath)
	return nil
}

func splitNames(value string) []string {
	var names []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func envOrDefault(lookup EnvLookup, keys []string, fallback string) string {
	for _, key := range keys {
		if lookup == nil {
			break
		}
		value, ok := lookup(key)
		if ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}
