// Package rng provides the seeded randomness shared by every generation step:
// seed handling, uniform picks and coherent 4D noise.
package rng

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Seed identifies a run. The same seed always yields the same image.
type Seed string

// seedSpace bounds freshly generated seeds so they stay short enough to type back in.
const seedSpace = 1_000_000_000

// NewSeed draws a fresh seed from process entropy.
func NewSeed() Seed {
	return Seed(strconv.FormatUint(rand.Uint64N(seedSpace), 10))
}

// ParseSeed trims s and returns it as a Seed. An empty string yields a fresh seed.
func ParseSeed(s string) Seed {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewSeed()
	}
	return Seed(s)
}

func (s Seed) String() string { return string(s) }

// Int64 hashes the seed into the integer state used by the random source.
func (s Seed) Int64() int64 {
	return int64(xxhash.Sum64String(string(s)))
}
