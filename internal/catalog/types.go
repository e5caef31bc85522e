// Package catalog records finished renders in a SQLite database so any image
// can be reproduced later from its seed and parameters.
package catalog

import (
	"errors"
	"time"

	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
)

// SchemaVersion is stored in the metadata table.
const SchemaVersion = "2"

// ErrNotFound is returned when no render matches a lookup.
var ErrNotFound = errors.New("render not found")

// Entry is one recorded render.
type Entry struct {
	Seed     string
	Noise    string
	Params   diamond.Params
	Palette  []string // hex colors, stack order
	Format   string
	Renderer string // raster backend, "vector" or "gg"
	// Background is "#rrggbb", empty when the render is transparent.
	Background string
	Path       string
	ThumbPath  string
	CreatedAt  time.Time
}
