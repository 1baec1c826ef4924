// Package migrations embeds the SQL schema so the binary can migrate a fresh
// database without the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
