// Package timeouts defines shared timeout constants used across commands.
// Keeping them together makes the durations discoverable.
package timeouts

import "time"

// Cycle caps the store work of a single poll cycle when no explicit cycle
// timeout is configured.
const Cycle = 30 * time.Second

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the metrics server and the trace exporter wait
// for in-flight work during graceful shutdown.
const Shutdown = 5 * time.Second
