// Package colorutil converts palette colors through HSL space.
package colorutil

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSL ranges used by offsets: hue in degrees, saturation and lightness in percent.
const (
	HueRange        = 360.0
	PercentMax      = 100.0
	hslPercentScale = 100.0
)

// OffsetHSL shifts base by the given offsets in HSL space.
// Hue wraps modulo 360; saturation and lightness clamp to [0, 100].
func OffsetHSL(base color.Color, hueOffset, saturationOffset, lightnessOffset float64) color.NRGBA {
	c, ok := colorful.MakeColor(base)
	if !ok {
		// Fully transparent input carries no hue; treat it as black.
		c = colorful.Color{}
	}

	h, s, l := c.Hsl()
	h = wrapHue(h + hueOffset)
	s = clamp(s*hslPercentScale+saturationOffset, 0, PercentMax) / hslPercentScale
	l = clamp(l*hslPercentScale+lightnessOffset, 0, PercentMax) / hslPercentScale

	r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, HueRange)
	if h < 0 {
		h += HueRange
	}
	return h
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
