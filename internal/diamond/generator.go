// Package diamond builds the brick-offset grid of nested, noise-perturbed diamonds.
package diamond

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
	"github.com/MeKo-Tech/diamondgrid/internal/palette"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// Noise channels, passed as the 4th noise coordinate.
const (
	ChannelSize = iota
	ChannelHue
	ChannelSaturation
	ChannelLightness
)

// Offset ranges after normalization.
const (
	HueMin, HueMax               = 0.0, 360.0
	SaturationMin, SaturationMax = -100.0, 100.0
	LightnessMin, LightnessMax   = -100.0, 100.0
)

// Generate builds every descriptor of the grid in one pass. Stack depth equals
// p.PaletteSize and stack i takes pal[i] as its base color.
func Generate(ctx *rng.Context, pal palette.Palette, p Params) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(pal) < p.PaletteSize {
		return nil, fmt.Errorf("%w: %w: have %d colors, need %d", ErrInvalidConfig, palette.ErrPaletteTooShort, len(pal), p.PaletteSize)
	}

	geom, err := NewGeometry(p.Width, p.Height, p.Columns, p.Rows)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		Geometry:    geom,
		Palette:     pal,
		Stacks:      p.PaletteSize,
		Descriptors: make([]Descriptor, 0, p.DescriptorCount()),
	}

	s := sampler{ctx: ctx, freq: p.NoiseFrequency, amp: p.NoiseAmplitude}

	for col := 0; col < geom.Columns; col++ {
		for row := 0; row < geom.Rows; row++ {
			bottomX, bottomY := geom.Anchor(col, row)

			for stack := 0; stack < g.Stacks; stack++ {
				d, err := s.descriptor(geom, pal, g.Stacks, col, row, stack)
				if err != nil {
					return nil, err
				}
				d.BottomX = bottomX
				d.BottomY = bottomY
				g.Descriptors = append(g.Descriptors, d)
			}
		}
	}

	return g, nil
}

type sampler struct {
	ctx  *rng.Context
	freq float64
	amp  float64
}

// unit samples channel at (col, row, stack) and maps [-1, 1] onto [0, 1].
func (s sampler) unit(col, row, stack, channel int) (float64, error) {
	v := s.ctx.Noise4D(float64(col), float64(row), float64(stack), float64(channel), s.freq, s.amp)
	if math.IsNaN(v) || v < -1 || v > 1 {
		return 0, fmt.Errorf("%w: %v at (%d,%d,%d,%d)", ErrNoiseDomain, v, col, row, stack, channel)
	}
	return inverseLerp(-1, 1, v), nil
}

func (s sampler) descriptor(geom Geometry, pal palette.Palette, stacks, col, row, stack int) (Descriptor, error) {
	sizeNoise, err := s.unit(col, row, stack, ChannelSize)
	if err != nil {
		return Descriptor{}, err
	}
	hueNoise, err := s.unit(col, row, stack, ChannelHue)
	if err != nil {
		return Descriptor{}, err
	}
	satNoise, err := s.unit(col, row, stack, ChannelSaturation)
	if err != nil {
		return Descriptor{}, err
	}
	lightNoise, err := s.unit(col, row, stack, ChannelLightness)
	if err != nil {
		return Descriptor{}, err
	}

	widthOffset := float64(stack) * geom.DiamondWidth * sizeNoise / float64(stacks)
	heightOffset := float64(stack) * geom.DiamondHeight * sizeNoise / float64(stacks)
	offsets := Offsets{
		Hue:        lerp(HueMin, HueMax, hueNoise),
		Saturation: lerp(SaturationMin, SaturationMax, satNoise),
		Lightness:  lerp(LightnessMin, LightnessMax, lightNoise),
	}

	colorIndex := stack
	return Descriptor{
		Column:     col,
		Row:        row,
		Stack:      stack,
		Width:      geom.DiamondWidth - widthOffset,
		Height:     geom.DiamondHeight - heightOffset,
		ColorIndex: colorIndex,
		Offsets:    offsets,
		Color:      colorutil.OffsetHSL(pal[colorIndex], offsets.Hue, offsets.Saturation, offsets.Lightness),
	}, nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func inverseLerp(a, b, v float64) float64 { return (v - a) / (b - a) }
