// Package oscillator provides the per-sample waveform generator used by a
// voice (spec §4.D). Adapted from the teacher's dsp/oscillator.Oscillator,
// which exposed one method per waveform; here the waveform is a runtime tag
// (Shape) so a voice can switch shapes without swapping generator types,
// and a noise shape draws from an injected *random.Source (the audio-thread
// stream) instead of touching any shared RNG.
package oscillator

import (
	"math"

	"github.com/barelymusician/barelymusician/pkg/random"
)

// Shape selects the waveform produced by Next.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSine
	ShapeSaw
	ShapeSquare
	ShapeTriangle
	ShapeNoise
)

// Oscillator generates a periodic waveform with phase advanced by
// frequency * sample_interval each call, per spec §4.D.
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64 // [0, 1)
	shape      Shape
	noise      *random.Source
}

// New creates an oscillator at the given sample rate. noise is the
// audio-thread random stream used only when Shape is ShapeNoise; it may be
// nil if the instrument never selects noise.
func New(sampleRate float64, noise *random.Source) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  440.0,
		shape:      ShapeSine,
		noise:      noise,
	}
}

// SetFrequency sets the oscillator frequency in Hz.
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
}

// SetShape selects the waveform.
func (o *Oscillator) SetShape(shape Shape) {
	o.shape = shape
}

// Reset resets phase to 0.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// SetPhase sets the phase directly, wrapped to [0, 1).
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// Next produces the next sample and advances phase.
func (o *Oscillator) Next() float32 {
	var sample float32
	switch o.shape {
	case ShapeNone:
		sample = 0
	case ShapeSine:
		sample = float32(math.Sin(2.0 * math.Pi * o.phase))
	case ShapeSaw:
		sample = float32(2.0*o.phase - 1.0)
	case ShapeSquare:
		sample = float32(sign(0.5 - o.phase))
	case ShapeTriangle:
		sample = float32(4.0*math.Abs(o.phase-0.5) - 1.0)
	case ShapeNoise:
		if o.noise != nil {
			sample = float32(o.noise.DrawUniform(-1.0, 1.0))
		}
	}
	o.advance()
	return sample
}

// Process fills buffer with successive samples — no allocations.
func (o *Oscillator) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Next()
	}
}

func (o *Oscillator) advance() {
	inc := o.frequency / o.sampleRate
	o.phase += inc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

func sign(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return -1
}
