// Package schemas embeds the bundled water-quality record schema and its
// shared definitions document.
package schemas

import (
	"embed"
	"io/fs"
)

//go:embed *.json
var files embed.FS

// Frontend is the name of the observation record schema.
const Frontend = "frontend.json"

// Definitions is the shared value-list document referenced by Frontend.
const Definitions = "definitions.values.json"

// FS exposes the embedded documents.
func FS() fs.FS { return files }

// Read returns the named embedded document.
func Read(name string) ([]byte, error) { return files.ReadFile(name) }
