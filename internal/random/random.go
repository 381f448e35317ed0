// Package random builds the seeded generators used wherever the study draws
// random numbers, so that a seed fully determines a run.
package random

import (
	"github.com/valyala/fastrand"
)

// fallbackSeed replaces a zero state, which fastrand would otherwise swap for
// an unseeded one.
const fallbackSeed uint32 = 0x9e3779b9

// New returns a generator whose sequence depends only on seed.
func New(seed int64) *fastrand.RNG {
	var rng fastrand.RNG
	s := uint32(seed) ^ uint32(uint64(seed)>>32)
	if s == 0 {
		s = fallbackSeed
	}
	rng.Seed(s)
	return &rng
}

// Float64 draws a uniform number in [0, 1).
func Float64(rng *fastrand.RNG) float64 {
	return float64(rng.Uint32()) / (1 << 32)
}

// Intn draws a uniform integer in [0, n).
func Intn(rng *fastrand.RNG, n int) int {
	return int(rng.Uint32n(uint32(n)))
}
