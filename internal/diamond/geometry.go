package diamond

import "fmt"

// Geometry is the brick-offset diamond grid laid over the canvas.
type Geometry struct {
	Width         int
	Height        int
	Columns       int
	Rows          int
	DiamondWidth  float64
	DiamondHeight float64
}

// NewGeometry derives the base diamond size for a W×H canvas split into
// columns×rows. The doubled height accounts for the vertical half-overlap
// of staggered rows.
func NewGeometry(width, height, columns, rows int) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidConfig, width, height)
	}
	if columns < 2 || rows < 2 {
		return Geometry{}, fmt.Errorf("%w: grid needs at least 2 columns and 2 rows, got %dx%d", ErrInvalidConfig, columns, rows)
	}

	return Geometry{
		Width:         width,
		Height:        height,
		Columns:       columns,
		Rows:          rows,
		DiamondWidth:  float64(width) / float64(columns-1),
		DiamondHeight: float64(height*2) / float64(rows-1),
	}, nil
}

// Anchor returns the bottom vertex of cell (column, row). Odd rows shift right
// by half a diamond.
func (g Geometry) Anchor(column, row int) (x, y float64) {
	x = float64(column) * g.DiamondWidth
	if row%2 == 1 {
		x += g.DiamondWidth / 2
	}
	y = float64(row+1) * g.DiamondHeight / 2
	return x, y
}

// Cells returns the number of grid cells.
func (g Geometry) Cells() int { return g.Columns * g.Rows }
