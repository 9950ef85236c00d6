// Package random wraps a seedable pseudo-random source for the two
// independent streams the engine requires: a control-thread MainRNG
// (performer/task randomness) and an audio-thread AudioRNG (noise
// oscillator, stochastic slice selection). The streams are never shared —
// each call site owns one *Source.
//
// Grounded on the teacher's dsp/utility.NoiseGenerator, which wraps
// *math/rand.Rand per generator instance rather than using the shared
// package-level source. Go's standard library has no Mersenne-Twister
// generator; math/rand's default algorithm is the substitute the pack
// itself reaches for (see DESIGN.md Open Question #1).
package random

import (
	"math"
	"math/rand"
)

// Source is one independent pseudo-random stream.
type Source struct {
	rng *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Reset reseeds the stream, discarding all prior state.
func (s *Source) Reset(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// DrawUniform returns a value in the half-open interval [min, max).
func (s *Source) DrawUniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.rng.Float64()*(max-min)
}

// DrawUniformInt returns an integer in the closed interval [min, max].
func (s *Source) DrawUniformInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// DrawNormal returns a value from a normal distribution with the given mean
// and variance.
func (s *Source) DrawNormal(mean, variance float64) float64 {
	if variance < 0 {
		variance = 0
	}
	return mean + s.rng.NormFloat64()*math.Sqrt(variance)
}
