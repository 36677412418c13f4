// Package migrations embeds the SQL schema shared by the sqlite and postgres stores.
package migrations

import "embed"

// FS holds the ordered *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
