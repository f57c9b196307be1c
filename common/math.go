package common

import (
	"math"
	"math/rand/v2"
)

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundHalfUp rounds x to the nearest integer, with .5 going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Falloff is 1 at the center and 0 at radius, linear in between.
func Falloff(distance, radius float64) float64 {
	if radius <= 0 || distance >= radius {
		return 0
	}
	return 1 - distance/radius
}

// RandomInDisc returns a point uniformly distributed in a disc of radius r.
func RandomInDisc(rng *rand.Rand, r float64) (float64, float64) {
	if r <= 0 || rng == nil {
		return 0, 0
	}
	angle := rng.Float64() * 2 * math.Pi
	dist := r * math.Sqrt(rng.Float64())
	return math.Cos(angle) * dist, math.Sin(angle) * dist
}

// NewRand returns a deterministic PCG source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
