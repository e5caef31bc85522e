// Package palette holds the candidate base-color palettes and picks one per run.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// DefaultSize is the number of colors taken from the chosen palette.
const DefaultSize = 5

var (
	// ErrNoPalettes is returned when the candidate collection is empty.
	ErrNoPalettes = errors.New("no candidate palettes")
	// ErrPaletteTooShort is returned when a candidate has fewer colors than requested.
	ErrPaletteTooShort = errors.New("palette shorter than requested size")
)

// Palette is an ordered list of base colors.
type Palette []color.NRGBA

// Hex returns the palette colors as "#rrggbb" strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = colorutil.Hex(c)
	}
	return out
}

func (p Palette) String() string {
	return strings.Join(p.Hex(), ",")
}

// FromHex builds a palette from hex strings.
func FromHex(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorutil.ParseHex(strings.TrimSpace(h))
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return p, nil
}

// Validate checks that every candidate can supply size colors.
func Validate(candidates []Palette, size int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d must be at least 1", ErrPaletteTooShort, size)
	}
	if len(candidates) == 0 {
		return ErrNoPalettes
	}
	for i, p := range candidates {
		if len(p) < size {
			return fmt.Errorf("%w: candidate %d has %d colors, need %d", ErrPaletteTooShort, i, len(p), size)
		}
	}
	return nil
}

// Select picks one candidate with the run's RNG and returns its first size colors.
// The returned palette is a copy; callers may not mutate the candidates through it.
func Select(ctx *rng.Context, candidates []Palette, size int) (Palette, error) {
	if err := Validate(candidates, size); err != nil {
		return nil, err
	}

	chosen := rng.Pick(ctx, candidates)
	out := make(Palette, size)
	copy(out, chosen[:size])
	return out, nil
}
