package diamond

import (
	"fmt"
	"math"
)

// Params configures a diamond grid render.
type Params struct {
	Width          int     `json:"width"`          // canvas width in pixels
	Height         int     `json:"height"`         // canvas height in pixels
	Columns        int     `json:"columns"`        // grid columns, at least 2
	Rows           int     `json:"rows"`           // grid rows, at least 2
	NoiseFrequency float64 `json:"noiseFrequency"` // spatial smoothness; lower is smoother
	NoiseAmplitude float64 `json:"noiseAmplitude"` // perturbation strength in [0, 1]
	PaletteSize    int     `json:"paletteSize"`    // colors per palette, also the stack depth
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	return Params{
		Width:          2048,
		Height:         2048,
		Columns:        13,
		Rows:           22,
		NoiseFrequency: 0.04,
		NoiseAmplitude: 0.8,
		PaletteSize:    5,
	}
}

// Validate reports the first configuration error, wrapped in ErrInvalidConfig.
func (p Params) Validate() error {
	if _, err := NewGeometry(p.Width, p.Height, p.Columns, p.Rows); err != nil {
		return err
	}
	if p.PaletteSize < 1 {
		return fmt.Errorf("%w: palette size must be at least 1, got %d", ErrInvalidConfig, p.PaletteSize)
	}
	if math.IsNaN(p.NoiseFrequency) || math.IsInf(p.NoiseFrequency, 0) || p.NoiseFrequency <= 0 {
		return fmt.Errorf("%w: noise frequency must be positive, got %v", ErrInvalidConfig, p.NoiseFrequency)
	}
	if math.IsNaN(p.NoiseAmplitude) || p.NoiseAmplitude < 0 || p.NoiseAmplitude > 1 {
		return fmt.Errorf("%w: noise amplitude must be within [0,1], got %v", ErrInvalidConfig, p.NoiseAmplitude)
	}
	return nil
}

// DescriptorCount is the number of descriptors a render with p produces.
func (p Params) DescriptorCount() int {
	return p.Columns * p.Rows * p.PaletteSize
}
