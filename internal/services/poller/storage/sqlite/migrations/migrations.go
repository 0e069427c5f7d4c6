// Package migrations embeds the poller SQLite schema.
package migrations

import "embed"

// FS holds the poller schema migrations.
//
//go:embed *.sql
var FS embed.FS
