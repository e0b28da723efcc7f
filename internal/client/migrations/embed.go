// Package migrations embeds the CLI's local sqlite goose migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
