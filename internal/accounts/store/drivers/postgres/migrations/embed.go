// Package migrations embeds the profile store's postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
