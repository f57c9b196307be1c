package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{10, 10},
		{12.5, 13},
		{15.9999, 16},
		{19.0, 19},
		{0.49, 0},
		{2.5, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RoundHalfUp(c.in), "RoundHalfUp(%v)", c.in)
	}
}

func TestFalloff(t *testing.T) {
	assert.InDelta(t, 1.0, Falloff(0, 4), 1e-9)
	assert.InDelta(t, 0.5, Falloff(2, 4), 1e-9)
	assert.Equal(t, 0.0, Falloff(4, 4))
	assert.Equal(t, 0.0, Falloff(1, 0))
}

func TestRandomInDiscStaysInside(t *testing.T) {
	rng := NewRand(7)
	for i := 0; i < 1000; i++ {
		x, y := RandomInDisc(rng, 2)
		assert.LessOrEqual(t, math.Hypot(x, y), 2.0)
	}
	x, y := RandomInDisc(rng, 0)
	assert.Zero(t, x)
	assert.Zero(t, y)
}
