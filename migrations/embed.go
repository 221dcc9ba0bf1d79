// Package migrations embeds the SQLite schema so the binary can migrate without a checkout.
package migrations

import "embed"

// FS holds the numbered migration files at its root
//
//go:embed *.sql
var FS embed.FS
