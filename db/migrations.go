// Package db embeds the goose migrations so the binary can migrate without the source tree.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
