// Package metrics exposes Prometheus collectors over HTTP.
//
// Collectors are registered by the packages that own them; this package only
// serves a gatherer at /metrics so scrapers can read poll cycle counters.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/dbpoll/internal/platform/timeouts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is the HTTP path metrics are served on.
const Path = "/metrics"

// Handler returns an HTTP handler serving gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr and serves gatherer until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("metrics address is required")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on metrics address %s: %w", addr, err)
	}
	return ServeListener(ctx, listener, gatherer)
}

// ServeListener serves gatherer on listener until ctx is done, then shuts the
// server down gracefully. The listener is closed on return.
func ServeListener(ctx context.Context, listener net.Listener, gatherer prometheus.Gatherer) error {
	if listener == nil {
		return fmt.Errorf("metrics listener is required")
	}
	if gatherer == nil {
		_ = listener.Close()
		return fmt.Errorf("metrics gatherer is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	log.Printf("metrics listening at %v", listener.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
