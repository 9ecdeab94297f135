// Package db embeds the database schema migrations.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migration/*.sql
var migrations embed.FS

// Migrations returns the migration files rooted at the migration directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migration")
	if err != nil {
		panic(err)
	}

	return sub
}
