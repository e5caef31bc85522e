package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/fogleman/gg"
)

// GGCanvas is a Surface backed by a gg context. It antialiases the same way
// as the 2D canvas of a browser.
type GGCanvas struct {
	img *image.RGBA
	dc  *gg.Context
}

// NewGGCanvas creates a width x height gg canvas. A nil background leaves it transparent.
func NewGGCanvas(width, height int, background color.Color) *GGCanvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}
	return &GGCanvas{img: img, dc: gg.NewContextForRGBA(img)}
}

func (c *GGCanvas) BeginPath() { c.dc.ClearPath() }

func (c *GGCanvas) MoveTo(x, y float64) { c.dc.MoveTo(x, y) }

func (c *GGCanvas) LineTo(x, y float64) { c.dc.LineTo(x, y) }

func (c *GGCanvas) SetFillColor(col color.Color) { c.dc.SetColor(col) }

func (c *GGCanvas) Fill() {
	c.dc.ClosePath()
	c.dc.Fill()
}

// Image returns the backing image.
func (c *GGCanvas) Image() *image.RGBA { return c.img }

// EncodePNG writes the canvas as PNG.
func (c *GGCanvas) EncodePNG(w io.Writer) error {
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
