// Package migrations embeds the ledger schema migrations.
package migrations

import "embed"

// FS holds the numbered up/down SQL files
//
//go:embed *.sql
var FS embed.FS
