// Package db provides the embedded goose migrations: schema, stored
// procedures and API keys.
package db

import "embed"

// Migrations holds the goose migration files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
