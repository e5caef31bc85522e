package raster

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo/float"

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
)

// SVGCanvas is a Surface that streams each filled path as an SVG polygon.
// Call Close once drawing is done.
type SVGCanvas struct {
	w    *errWriter
	svg  *svg.SVG
	fill string
	xs   []float64
	ys   []float64
}

// NewSVGCanvas starts a width x height document on w. A nil background emits no
// background rect.
func NewSVGCanvas(w io.Writer, width, height int, background color.Color) *SVGCanvas {
	ew := &errWriter{w: w}
	doc := svg.New(ew)
	doc.Start(float64(width), float64(height))
	if background != nil {
		doc.Rect(0, 0, float64(width), float64(height), fillStyle(background))
	}

	return &SVGCanvas{w: ew, svg: doc, fill: fillStyle(color.Black)}
}

func (c *SVGCanvas) BeginPath() {
	c.xs = c.xs[:0]
	c.ys = c.ys[:0]
}

func (c *SVGCanvas) MoveTo(x, y float64) {
	c.BeginPath()
	c.LineTo(x, y)
}

func (c *SVGCanvas) LineTo(x, y float64) {
	c.xs = append(c.xs, x)
	c.ys = append(c.ys, y)
}

func (c *SVGCanvas) SetFillColor(col color.Color) { c.fill = fillStyle(col) }

func (c *SVGCanvas) Fill() {
	if len(c.xs) < 3 {
		return
	}
	c.svg.Polygon(c.xs, c.ys, c.fill)
	c.BeginPath()
}

// Close ends the document and reports the first write error, if any.
func (c *SVGCanvas) Close() error {
	c.svg.End()
	if c.w.err != nil {
		return fmt.Errorf("failed to write svg: %w", c.w.err)
	}
	return nil
}

func fillStyle(col color.Color) string {
	return "fill:" + colorutil.Hex(col)
}

// errWriter keeps the first error since svgo drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
