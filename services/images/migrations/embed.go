package migrations

import "embed"

// FS holds the images service schema migrations.
//
//go:embed *.up.sql
var FS embed.FS
