package migrations

import "embed"

// FS holds the opinions service schema migrations.
//
//go:embed *.up.sql
var FS embed.FS
