package rng

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// NoiseKind selects the coherent noise field backing Context.Noise4D.
type NoiseKind string

const (
	NoiseSimplex NoiseKind = "simplex"
	NoisePerlin  NoiseKind = "perlin"
)

// ErrUnknownNoise is returned for an unsupported NoiseKind.
var ErrUnknownNoise = errors.New("unknown noise kind")

// ChannelStride separates the folded 4th coordinate of the perlin field along z.
// It must exceed any stack depth so channels never share a slab.
const ChannelStride = 64

// Field is a deterministic coherent noise function of four coordinates.
// Values are expected in [-1, 1].
type Field interface {
	Eval4(x, y, z, w float64) float64
}

// ParseNoiseKind maps a config string to a NoiseKind.
func ParseNoiseKind(s string) (NoiseKind, error) {
	switch k := NoiseKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", NoiseSimplex:
		return NoiseSimplex, nil
	case NoisePerlin:
		return NoisePerlin, nil
	default:
		return "", fmt.Errorf("%w: %q (want simplex or perlin)", ErrUnknownNoise, s)
	}
}

// NewField builds the noise field of the given kind.
func NewField(kind NoiseKind, seed int64) (Field, error) {
	switch kind {
	case "", NoiseSimplex:
		return opensimplex.New(seed), nil
	case NoisePerlin:
		return newPerlinField(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNoise, kind)
	}
}

// perlinField folds w into z so a 3D perlin lattice can serve 4D lookups.
type perlinField struct {
	p *perlin.Perlin
}

func newPerlinField(seed int64) *perlinField {
	// A single octave keeps the output inside [-1, 1].
	return &perlinField{p: perlin.NewPerlin(2.0, 2.0, 1, seed)}
}

func (f *perlinField) Eval4(x, y, z, w float64) float64 {
	return f.p.Noise3D(x, y, z+w*ChannelStride)
}
