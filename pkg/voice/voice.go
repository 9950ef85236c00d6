// Package voice implements one polyphonic synthesis voice (spec §4.E) and
// the fixed-capacity bank + stealing policy that allocates them (spec
// §4.F "Voice stealing"). Adapted from the teacher's
// pkg/framework/voice.Allocator: that package modeled a MIDI-oriented
// allocator with four allocation modes (Poly/Mono/Legato/Unison) and four
// stealing policies. The spec names exactly one allocation behavior — every
// pitch gets its own voice, retriggering reuses the existing voice for that
// pitch — and exactly one stealing policy — steal the quietest voice,
// oldest-age tiebreak — so Bank implements only that single behavior rather
// than carrying the unused modes forward.
package voice

import (
	"math"

	"github.com/barelymusician/barelymusician/pkg/dsp/envelope"
	"github.com/barelymusician/barelymusician/pkg/dsp/filter"
	"github.com/barelymusician/barelymusician/pkg/dsp/oscillator"
	"github.com/barelymusician/barelymusician/pkg/dsp/sampler"
	"github.com/barelymusician/barelymusician/pkg/random"
)

// NoteControl is one per-note control value (spec §6's note controls:
// pitch_shift, gain).
type NoteControl struct {
	Type  NoteControlType
	Value float64
}

// NoteControlType enumerates the per-note controls a voice tracks.
type NoteControlType int

const (
	NoteControlPitchShift NoteControlType = iota
	NoteControlGain
)

// referenceFrequency is the frequency a pitch of 0.0 maps to; pitch is
// expressed in octaves above/below this reference (original_source's Note
// carries a plain float `index`; later barelymusician generations define
// frequency = reference * 2^pitch, which this preserves).
const referenceFrequency = 440.0

// PitchToFrequency converts a pitch value in octaves to Hz.
func PitchToFrequency(pitch float64) float64 {
	return referenceFrequency * math.Exp2(pitch)
}

// Voice is one polyphonic synthesis instance: oscillator + sampler mixed
// per Params.OscMode, through a one-pole filter, shaped by an ADSR, scaled
// by gain.
type Voice struct {
	params *Params

	osc     *oscillator.Oscillator
	env     *envelope.ADSR
	filt    filter.OnePole
	sampler *sampler.Player // nil until a slice is assigned

	active    bool
	pitch     float64
	age       int64
	noteGain  float64
	notePitch float64
}

// New creates a voice sharing the given instrument-wide Params and
// audio-thread random stream (used only when OscShape is noise).
func New(sampleRate float64, noise *random.Source, params *Params) *Voice {
	return &Voice{
		params:   params,
		osc:      oscillator.New(sampleRate, noise),
		env:      envelope.New(sampleRate),
		noteGain: 1.0,
	}
}

// SetSampleData installs a sampler over the given PCM slice; passing a nil
// data slice clears the sampler (spec §4.F "SampleData" handling splits
// swap-then-release across a message boundary at the Processor level —
// this method only performs the swap).
func (v *Voice) SetSampleData(data []float32, sourceRate int, dstRate float64) {
	if data == nil {
		v.sampler = nil
		return
	}
	if v.sampler == nil {
		v.sampler = sampler.NewPlayer(data, sourceRate, dstRate)
	} else {
		v.sampler.SetData(data, sourceRate)
	}
	v.sampler.SetLoop(v.params.SliceMode == SliceModeLoop)
}

// IsActive reports whether the voice's envelope is generating non-idle
// output; it remains true through the release tail (spec §4.E).
func (v *Voice) IsActive() bool {
	return v.env.IsActive()
}

// Pitch returns the voice's currently assigned pitch.
func (v *Voice) Pitch() float64 { return v.pitch }

// Amplitude returns the voice's current envelope amplitude, used by the
// steal-quietest policy.
func (v *Voice) Amplitude() float64 { return v.env.Value() }

// Age returns how long (in samples) this voice has been active, used to
// break steal ties in favor of the oldest voice.
func (v *Voice) Age() int64 { return v.age }

// TriggerNote starts (or retriggers) the voice on the given pitch with the
// given initial note controls.
func (v *Voice) TriggerNote(pitch float64, controls []NoteControl) {
	alreadyPlaying := v.active && v.pitch == pitch
	v.active = true
	v.pitch = pitch
	v.noteGain = 1.0
	v.notePitch = 0
	for _, c := range controls {
		v.applyNoteControl(c)
	}

	if !alreadyPlaying || v.params.Retrigger {
		v.osc.Reset()
		if v.sampler != nil {
			v.sampler.Reset()
		}
		v.age = 0
	}
	v.env.SetADSR(v.params.Attack, v.params.Decay, v.params.Sustain, v.params.Release)
	v.env.Start()
}

// ReleaseNote starts the release stage; the voice remains IsActive until
// the release tail completes (spec §4.F).
func (v *Voice) ReleaseNote() {
	v.env.Stop()
}

// Stop immediately silences the voice (used by voice stealing); unlike
// ReleaseNote it does not wait for a release tail.
func (v *Voice) Stop() {
	v.active = false
	v.env.Reset()
	v.osc.Reset()
}

// SetNoteControl mutates one per-note control on an already-sounding voice.
func (v *Voice) SetNoteControl(typ NoteControlType, value float64) {
	v.applyNoteControl(NoteControl{Type: typ, Value: value})
}

func (v *Voice) applyNoteControl(c NoteControl) {
	switch c.Type {
	case NoteControlGain:
		if c.Value < 0 {
			c.Value = 0
		}
		v.noteGain = c.Value
	case NoteControlPitchShift:
		v.notePitch = c.Value
	}
}

// Next produces the next output sample and advances all internal state.
// Deactivation (and pool release) once the envelope reaches idle is the
// Bank's responsibility, run once per buffer per spec §4.F step 4.
func (v *Voice) Next() float32 {
	v.age++

	totalPitch := v.pitch + v.notePitch + v.params.PitchShift + v.params.OscPitchShift
	v.osc.SetShape(v.params.OscShape)
	v.osc.SetFrequency(PitchToFrequency(totalPitch))

	oscSample := v.osc.Next()

	var sampleSample float32
	if v.sampler != nil && !v.sampler.IsExhausted() {
		sampleSample = v.sampler.Next()
	}

	var mixed float32
	switch v.params.OscMode {
	case OscModeAM:
		mixed = oscSample * (0.5 + 0.5*sampleSample)
	case OscModeFM:
		// Sampler output modulates oscillator phase by re-reading the next
		// oscillator sample at a frequency offset; a single extra Next()
		// call approximates through-zero FM without a second oscillator.
		v.osc.SetFrequency(PitchToFrequency(totalPitch) * (1.0 + float64(sampleSample)))
		mixed = v.osc.Next()
	case OscModeRing:
		mixed = oscSample * sampleSample
	default: // OscModeMix
		mixed = oscSample*float32(1.0-v.params.OscMix) + sampleSample*float32(v.params.OscMix)
	}

	filtered := float32(v.filt.Next(float64(mixed), v.params.filterCoefficient, v.params.FilterType))
	envAmp := v.env.Next()

	return filtered * envAmp * float32(v.noteGain*v.params.Gain)
}
