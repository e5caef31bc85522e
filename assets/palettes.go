// Package assets embeds the static data shipped with the binary.
package assets

import "embed"

// PalettesFS holds the default candidate palettes.
//
//go:embed palettes/*.json
var PalettesFS embed.FS

// DefaultPalettesFile is the path of the default palette collection inside PalettesFS.
const DefaultPalettesFile = "palettes/palettes.json"
