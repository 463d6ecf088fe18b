// Package migrations holds the schema of the mapping database.
package migrations

import "embed"

// FS holds the numbered NNN_name.up.sql / .down.sql scripts.
//
//go:embed *.sql
var FS embed.FS
