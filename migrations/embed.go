// Package migrations embeds the SQL schema migrations so the goose
// programmatic API can apply them from tests and the server bootstrap
// without a filesystem path at runtime.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
