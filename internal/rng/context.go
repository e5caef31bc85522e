package rng

import (
	"fmt"
	"math/rand"
)

// Context owns the deterministic random stream of one run. It is built once
// from a seed and handed to every step that needs randomness.
type Context struct {
	seed  Seed
	kind  NoiseKind
	rnd   *rand.Rand
	field Field
}

// New seeds a Context. The noise field seed is the first value drawn from the
// stream, so the seed alone fixes both picks and noise.
func New(seed Seed, kind NoiseKind) (*Context, error) {
	rnd := rand.New(rand.NewSource(seed.Int64()))

	field, err := NewField(kind, rnd.Int63())
	if err != nil {
		return nil, err
	}

	if kind == "" {
		kind = NoiseSimplex
	}

	return &Context{
		seed:  seed,
		kind:  kind,
		rnd:   rnd,
		field: field,
	}, nil
}

// NewWithField seeds a Context whose noise comes from field instead of a
// built-in kind.
func NewWithField(seed Seed, field Field) *Context {
	return &Context{
		seed:  seed,
		kind:  "custom",
		rnd:   rand.New(rand.NewSource(seed.Int64())),
		field: field,
	}
}

// Seed returns the seed the context was built from.
func (c *Context) Seed() Seed { return c.seed }

// NoiseKind returns the kind of noise field in use.
func (c *Context) NoiseKind() NoiseKind { return c.kind }

// Intn returns a uniform int in [0, n).
func (c *Context) Intn(n int) int { return c.rnd.Intn(n) }

// Noise4D samples the coherent noise field at the given coordinates scaled by
// frequency, and scales the result by amplitude.
func (c *Context) Noise4D(x, y, z, w, frequency, amplitude float64) float64 {
	return amplitude * c.field.Eval4(x*frequency, y*frequency, z*frequency, w*frequency)
}

func (c *Context) String() string {
	return fmt.Sprintf("seed=%s noise=%s", c.seed, c.kind)
}

// Pick returns a uniformly chosen element of list. It panics if list is empty.
func Pick[T any](c *Context, list []T) T {
	return list[c.Intn(len(list))]
}
