// Package db holds the SQL schema migrations for the PostgreSQL backend.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
