// Package migrations embeds the schema for each supported SQL dialect, one
// directory per database/sql driver name.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql
var FS embed.FS
