package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change, ordered by the timestamp prefix of the file that registers it.
var Migrations = migrate.NewMigrations()
