package voice

import (
	"github.com/barelymusician/barelymusician/pkg/dsp/filter"
	"github.com/barelymusician/barelymusician/pkg/dsp/oscillator"
)

// OscMode selects how a voice combines its oscillator and sampler outputs.
type OscMode int

const (
	OscModeMix OscMode = iota
	OscModeAM
	OscModeFM
	OscModeRing
)

// SliceMode selects sampler playback behavior.
type SliceMode int

const (
	SliceModeSustain SliceMode = iota // plays while the note is held, ignores the slice's own length otherwise
	SliceModeLoop
	SliceModeOneShot
)

// Params holds the instrument-wide controls every voice in a bank reads.
// It is owned and mutated exclusively by the audio-thread Instrument
// Processor in response to ControlChange messages (spec §4.F); since the
// whole Processor.Process call runs on one thread, a voice simply holds a
// pointer to the live Params and always observes the latest values — no
// atomics or caching are needed for this propagation, only for the
// cross-thread handoff that already happens at the MessageQueue boundary.
type Params struct {
	Gain            float64
	PitchShift      float64
	OscMix          float64
	OscMode         OscMode
	OscShape        oscillator.Shape
	OscPitchShift   float64
	SliceMode       SliceMode
	FilterType      filter.Type
	FilterFrequency float64
	FilterQ         float64 // stored for parity with spec §6's filter_q control; the one-pole filter has no resonance term

	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	Retrigger bool

	SampleRate float64

	filterCoefficient float64
}

// NewParams returns Params seeded with the same defaults as a fresh
// envelope.ADSR and a neutral filter.
func NewParams(sampleRate float64) *Params {
	p := &Params{
		Gain:            1.0,
		OscMix:          0.0,
		OscShape:        oscillator.ShapeSine,
		FilterType:      filter.TypeNone,
		FilterFrequency: sampleRate / 2,
		FilterQ:         0.707,
		Attack:          0.01,
		Decay:           0.1,
		Sustain:         0.7,
		Release:         0.3,
		SampleRate:      sampleRate,
	}
	p.RecomputeFilterCoefficient()
	return p
}

// RecomputeFilterCoefficient must be called whenever FilterFrequency or
// SampleRate changes; the coefficient is cached so Voice.Next never
// recomputes exp() per sample.
func (p *Params) RecomputeFilterCoefficient() {
	p.filterCoefficient = filter.GetFilterCoefficient(int(p.SampleRate), p.FilterFrequency)
}
