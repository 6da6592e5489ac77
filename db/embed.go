// Package db carries the SQL migrations of both store backends.
package db

import "embed"

//go:embed migrations/postgres/*.sql
var Postgres embed.FS

//go:embed migrations/sqlite/*.sql
var SQLite embed.FS

const (
	PostgresDir = "migrations/postgres"
	SQLiteDir   = "migrations/sqlite"
)
