package seed

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func noEnv(string) (string, bool) { return "", false }

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, noEnv)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/poller.db" {
		t.Fatalf("db path = %q, want data/poller.db", cfg.DBPath)
	}
	if !reflect.DeepEqual(cfg.Names, []string{"Alice", "Bob"}) {
		t.Fatalf("names = %v, want [Alice Bob]", cfg.Names)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	lookup := func(key string) (string, bool) {
		if key == "DBPOLL_DB_PATH" {
			return " /tmp/env.db ", true
		}
		return "", false
	}
	cfg, err := ParseConfig(fs, []string{"-names", "Carol, ,Dave", "-v"}, lookup)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %q, want /tmp/env.db", cfg.DBPath)
	}
	if !reflect.DeepEqual(cfg.Names, []string{"Carol", "Dave"}) {
		t.Fatalf("names = %v, want [Carol Dave]", cfg.Names)
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose flag to be true")
	}
}

func TestParseConfigRequiresNames(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-names", " , "}, noEnv); err == nil {
		t.Fatal("expected error for empty names")
	}
}

func TestRunInsertsUnprocessedCustomers(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "poller.db")
	var out bytes.Buffer

	err := Run(context.Background(), Config{DBPath: dbPath, Names: []string{"Alice", "Bob"}, Verbose: true}, &out, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"inserted customer 1 Alice", "inserted customer 2 Bob", "2 unprocessed customers"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output %q missing %q", out.String(), want)
		}
	}

	out.Reset()
	if err := Run(context.Background(), Config{DBPath: dbPath, Status: true}, &out, nil); err != nil {
		t.Fatalf("status run: %v", err)
	}
	if !strings.Contains(out.String(), "2 unprocessed customers") {
		t.Fatalf("status output = %q", out.String())
	}
}
