// Package raster draws diamond grids onto path-filling surfaces.
package raster

import (
	"image/color"

	"github.com/MeKo-Tech/diamondgrid/internal/diamond"
)

// Surface is the minimal path-filling API the renderer needs.
type Surface interface {
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	SetFillColor(c color.Color)
	Fill()
}

// Render fills every descriptor of g onto s in arena order, so later stack
// layers paint over earlier ones and later cells over earlier cells.
func Render(g *diamond.Grid, s Surface) {
	for i := range g.Descriptors {
		drawDiamond(s, &g.Descriptors[i])
	}
}

func drawDiamond(s Surface, d *diamond.Descriptor) {
	v := d.Vertices()

	s.SetFillColor(d.Color)
	s.BeginPath()
	s.MoveTo(v[0][0], v[0][1])
	s.LineTo(v[1][0], v[1][1])
	s.LineTo(v[2][0], v[2][1])
	s.LineTo(v[3][0], v[3][1])
	s.Fill()
}
