package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects the schema steps; each file registers itself under its own version.
var Migrations = migrate.NewMigrations()
