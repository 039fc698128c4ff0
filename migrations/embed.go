// Package migrations embeds the goose SQL migration tree so cmd/hos-planner
// can run them without shipping separate files alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
