package migrations

import "embed"

// Migrations holds the ordered golang-migrate SQL files.
//
//go:embed *.sql
var Migrations embed.FS
