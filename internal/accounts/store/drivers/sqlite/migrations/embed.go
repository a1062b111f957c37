// Package migrations embeds the profile store's sqlite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
