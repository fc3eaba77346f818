package migrations

import "embed"

// FS holds the users service schema migrations.
//
//go:embed *.up.sql
var FS embed.FS
