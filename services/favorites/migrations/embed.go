package migrations

import "embed"

// FS holds the favorites service schema migrations.
//
//go:embed *.up.sql
var FS embed.FS
