// Package envelope provides the linear ADSR envelope generator used by a
// voice (spec §4.D). Adapted from the teacher's envelope.ADSR, which used
// exponential per-stage coefficients (`exp(-1/(time*sampleRate))`); spec
// §4.D calls for a *linear* ADSR explicitly, so each stage advances by a
// constant per-sample increment derived from the user time and the sample
// rate instead. The Stage enum, accessor naming (SetAttack/SetDecay/...),
// and Next()/Process() buffer-fill shape are kept from the teacher.
package envelope

import "math"

// Stage represents the current envelope stage.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// minTime is the floor applied to user-supplied A/D/R times so a rate never
// divides by zero.
const minTime = 0.0001

// ADSR implements a linear Attack-Decay-Sustain-Release envelope generator.
type ADSR struct {
	sampleRate float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	attackRate  float64 // amplitude increment per sample during attack
	decayRate   float64 // amplitude decrement per sample during decay
	releaseRate float64 // amplitude decrement per sample during release

	stage Stage
	value float64

	// releaseStart is the value held when Stop() is called, so Next's
	// release ramp reaches zero in exactly `release` seconds regardless of
	// where in the envelope it was triggered, preserving continuity across
	// state transitions (spec §8 property 3).
	releaseStart float64
}

// New creates a new ADSR envelope at the given sample rate.
func New(sampleRate float64) *ADSR {
	e := &ADSR{
		sampleRate: sampleRate,
		attack:     0.01,
		decay:      0.1,
		sustain:    0.7,
		release:    0.3,
		stage:      StageIdle,
	}
	e.updateRates()
	return e
}

// SetAttack sets the attack time in seconds.
func (e *ADSR) SetAttack(seconds float64) {
	e.attack = math.Max(minTime, seconds)
	e.updateRates()
}

// SetDecay sets the decay time in seconds.
func (e *ADSR) SetDecay(seconds float64) {
	e.decay = math.Max(minTime, seconds)
	e.updateRates()
}

// SetSustain sets the sustain level (0-1).
func (e *ADSR) SetSustain(level float64) {
	e.sustain = math.Max(0.0, math.Min(1.0, level))
}

// SetRelease sets the release time in seconds.
func (e *ADSR) SetRelease(seconds float64) {
	e.release = math.Max(minTime, seconds)
	e.updateRates()
}

// SetADSR sets all four parameters at once.
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	e.attack = math.Max(minTime, attack)
	e.decay = math.Max(minTime, decay)
	e.sustain = math.Max(0.0, math.Min(1.0, sustain))
	e.release = math.Max(minTime, release)
	e.updateRates()
}

func (e *ADSR) updateRates() {
	e.attackRate = 1.0 / (e.attack * e.sampleRate)
	e.decayRate = (1.0 - e.sustain) / (e.decay * e.sampleRate)
	e.releaseRate = 1.0 / (e.release * e.sampleRate)
}

// Start forces the envelope into attack from its current value, per spec
// §4.D: the retrigger policy (whether the instrument resets the voice's
// phase/cursor alongside this) is the caller's responsibility.
func (e *ADSR) Start() {
	e.stage = StageAttack
}

// Stop forces the envelope into release, ramping to zero in `release`
// seconds from whatever value it currently holds.
func (e *ADSR) Stop() {
	if e.stage == StageIdle {
		return
	}
	e.stage = StageRelease
	e.releaseStart = e.value
	if e.releaseStart > 0 {
		e.releaseRate = e.releaseStart / (e.release * e.sampleRate)
	} else {
		e.releaseRate = 1.0 / (e.release * e.sampleRate)
	}
}

// Reset immediately returns the envelope to idle with zero output.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0
}

// IsActive reports whether the envelope is generating non-idle output.
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// GetStage returns the current envelope stage.
func (e *ADSR) GetStage() Stage {
	return e.stage
}

// Value returns the current amplitude without advancing the envelope, used
// by voice stealing to compare voices between Next() calls.
func (e *ADSR) Value() float64 {
	return e.value
}

// Next advances the envelope by one sample and returns the new amplitude.
func (e *ADSR) Next() float32 {
	switch e.stage {
	case StageAttack:
		e.value += e.attackRate
		if e.value >= 1.0 {
			e.value = 1.0
			if e.decay > minTime && e.sustain < 1.0 {
				e.stage = StageDecay
			} else {
				e.stage = StageSustain
			}
		}

	case StageDecay:
		e.value -= e.decayRate
		if e.value <= e.sustain {
			e.value = e.sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = e.sustain

	case StageRelease:
		e.value -= e.releaseRate
		if e.value <= 0 {
			e.value = 0
			e.stage = StageIdle
		}

	case StageIdle:
		e.value = 0
	}

	return float32(e.value)
}

// Process fills buffer with successive envelope values — no allocations.
func (e *ADSR) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = e.Next()
	}
}

// ProcessMultiply multiplies buffer in place by the envelope — no allocations.
func (e *ADSR) ProcessMultiply(buffer []float32) {
	for i := range buffer {
		buffer[i] *= e.Next()
	}
}
