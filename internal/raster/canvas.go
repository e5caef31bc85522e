package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// Canvas is a Surface backed by a vector rasterizer and an RGBA image.
// Paths are closed implicitly on Fill and only their bounding box is rasterized.
type Canvas struct {
	img  *image.RGBA
	ras  *vector.Rasterizer
	fill *image.Uniform
	path []point
}

type point struct{ x, y float64 }

// NewCanvas creates a width x height canvas. A nil background leaves it transparent.
func NewCanvas(width, height int, background color.Color) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}

	return &Canvas{
		img:  img,
		ras:  vector.NewRasterizer(width, height),
		fill: image.NewUniform(color.NRGBA{A: 255}),
	}
}

func (c *Canvas) BeginPath() { c.path = c.path[:0] }

func (c *Canvas) MoveTo(x, y float64) {
	c.BeginPath()
	c.LineTo(x, y)
}

func (c *Canvas) LineTo(x, y float64) { c.path = append(c.path, point{x, y}) }

func (c *Canvas) SetFillColor(col color.Color) { c.fill = image.NewUniform(col) }

// Fill composites the current path over the image and starts a new path.
func (c *Canvas) Fill() {
	defer c.BeginPath()
	if len(c.path) < 3 {
		return
	}

	r := c.bounds().Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	c.ras.Reset(r.Dx(), r.Dy())
	c.ras.MoveTo(float32(c.path[0].x-ox), float32(c.path[0].y-oy))
	for _, p := range c.path[1:] {
		c.ras.LineTo(float32(p.x-ox), float32(p.y-oy))
	}
	c.ras.ClosePath()
	c.ras.Draw(c.img, r, c.fill, image.Point{})
}

// bounds is the integer rectangle covering the current path.
func (c *Canvas) bounds() image.Rectangle {
	minX, minY := c.path[0].x, c.path[0].y
	maxX, maxY := minX, minY
	for _, p := range c.path[1:] {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
