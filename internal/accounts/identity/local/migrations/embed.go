// Package migrations embeds the local identity provider's sqlite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
