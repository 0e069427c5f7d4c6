// Package main starts the customer poller process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	pollercmd "github.com/louisbranch/dbpoll/internal/cmd/poller"
	entrypoint "github.com/louisbranch/dbpoll/internal/platform/cmd"
)

func main() {
	if err := entrypoint.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := pollercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[POLLER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pollercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("poller stopped: %v", err)
	}
}
