package migrations

import "embed"

// FS holds the beers service schema migrations.
//
//go:embed *.up.sql
var FS embed.FS
