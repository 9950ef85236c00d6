package filter

import "math"

// Type selects which tap of the one-pole filter Next returns.
type Type int

const (
	TypeNone Type = iota
	TypeLowPass
	TypeHighPass
)

// OnePole implements the single-coefficient filter of spec §4.D:
// y = c*(y - x) + x; low-pass returns y, high-pass returns x - y, none
// returns x unmodified.
//
// GetFilterCoefficient's formula (exp(-2π·fc/fs)) is grounded verbatim on
// the teacher's dsp/dynamics.Gate high-pass coefficient
// (pkg/dsp/dynamics/gate.go:160), which uses the identical expression for
// its sidechain HPF.
type OnePole struct {
	output float64
}

// Reset clears the filter state.
func (f *OnePole) Reset() {
	f.output = 0
}

// Next processes one sample with the given coefficient and filter type.
func (f *OnePole) Next(input float64, coefficient float64, typ Type) float64 {
	if typ == TypeNone {
		return input
	}
	f.output = coefficient*(f.output-input) + input
	if typ == TypeHighPass {
		return input - f.output
	}
	return f.output
}

// Process filters buffer in place — no allocations.
func (f *OnePole) Process(buffer []float32, coefficient float64, typ Type) {
	for i := range buffer {
		buffer[i] = float32(f.Next(float64(buffer[i]), coefficient, typ))
	}
}

// GetFilterCoefficient returns the one-pole coefficient for a target cutoff
// frequency at the given sample rate, clamped to [0, 1]. Per spec §9(i) the
// formula is preserved verbatim from the original implementation, which
// flags it as an open question rather than a settled derivation.
func GetFilterCoefficient(sampleRate int, cutoffFrequency float64) float64 {
	sr := float64(sampleRate)
	if sr <= 0 || cutoffFrequency >= sr {
		return 0
	}
	c := math.Exp(-2.0 * math.Pi * cutoffFrequency / sr)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
