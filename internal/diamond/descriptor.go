package diamond

import (
	"image/color"

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
)

// Offsets are the HSL shifts applied to a base palette color.
type Offsets struct {
	Hue        float64 `json:"hue"`        // [0, 360]
	Saturation float64 `json:"saturation"` // [-100, 100]
	Lightness  float64 `json:"lightness"`  // [-100, 100]
}

// Descriptor is one diamond ready to draw. BottomX/BottomY is the bottom vertex;
// Width/Height span the horizontal and vertical diagonals.
type Descriptor struct {
	Column     int         `json:"column"`
	Row        int         `json:"row"`
	Stack      int         `json:"stack"`
	BottomX    float64     `json:"bottomX"`
	BottomY    float64     `json:"bottomY"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	ColorIndex int         `json:"colorIndex"`
	Offsets    Offsets     `json:"offsets"`
	Color      color.NRGBA `json:"-"`
}

// Hex returns the fill color as "#rrggbb".
func (d Descriptor) Hex() string { return colorutil.Hex(d.Color) }

// Vertices returns the rhombus corners in drawing order: top, right, bottom, left.
func (d Descriptor) Vertices() [4][2]float64 {
	return [4][2]float64{
		{d.BottomX, d.BottomY - d.Height},
		{d.BottomX + d.Width/2, d.BottomY - d.Height/2},
		{d.BottomX, d.BottomY},
		{d.BottomX - d.Width/2, d.BottomY - d.Height/2},
	}
}

// Grid holds every descriptor of a render in one contiguous slice, ordered by
// column, then row, then stack.
type Grid struct {
	Geometry    Geometry
	Palette     palette.Palette
	Stacks      int
	Descriptors []Descriptor
}

// Index maps (column, row, stack) to a position in Descriptors.
func (g *Grid) Index(column, row, stack int) int {
	return (column*g.Geometry.Rows+row)*g.Stacks + stack
}

// At returns the descriptor of (column, row, stack).
func (g *Grid) At(column, row, stack int) Descriptor {
	return g.Descriptors[g.Index(column, row, stack)]
}

// Stack returns the descriptors of one cell, bottom layer first.
func (g *Grid) Stack(column, row int) []Descriptor {
	start := g.Index(column, row, 0)
	return g.Descriptors[start : start+g.Stacks]
}

// Len returns the number of descriptors.
func (g *Grid) Len() int { return len(g.Descriptors) }
