// Package sampler provides fractional-cursor PCM playback (spec §4.D).
// Grounded on original_source's SamplePlayer (cursor in fractional source
// frames, speed-scaled advance, modulo looping) and the teacher's
// dsp/interpolation.Linear for fractional-sample lookup instead of the
// original's plain truncation, since the Go rendition has interpolation
// available and truncation would be a needless quality regression on the
// same formula.
package sampler

import (
	"math"

	"github.com/barelymusician/barelymusician/pkg/dsp/interpolation"
)

// Player advances a fractional cursor through a borrowed PCM slice.
type Player struct {
	data       []float32
	sourceRate float64
	dstRate    float64
	ratio      float64 // sourceRate * (1/dstRate), recomputed on rate change
	speed      float64
	loop       bool
	cursor     float64
}

// NewPlayer creates a player for data sampled at sourceRate, to be advanced
// at destination sample rate dstRate.
func NewPlayer(data []float32, sourceRate int, dstRate float64) *Player {
	p := &Player{
		data:       data,
		sourceRate: float64(sourceRate),
		dstRate:    dstRate,
		speed:      1.0,
	}
	p.updateRatio()
	return p
}

// SetData replaces the underlying PCM slice and recomputes the rate ratio,
// used when an Instrument Processor swaps in a new SampleData payload (spec
// §4.F "SampleData" message handling is the caller's responsibility; this
// only updates the buffer pointer, length and source rate). The cursor is
// left where it was; call Reset to rewind it.
func (p *Player) SetData(data []float32, sourceRate int) {
	p.data = data
	p.sourceRate = float64(sourceRate)
	p.updateRatio()
}

// SetSpeed sets the playback speed multiplier (1.0 = source pitch).
func (p *Player) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	p.speed = speed
}

// SetLoop enables or disables wrap-around playback.
func (p *Player) SetLoop(loop bool) {
	p.loop = loop
}

// Reset rewinds the cursor to the start of the slice.
func (p *Player) Reset() {
	p.cursor = 0
}

func (p *Player) updateRatio() {
	if p.dstRate <= 0 {
		p.ratio = 0
		return
	}
	p.ratio = p.sourceRate / p.dstRate
}

// IsExhausted reports whether a non-looping player has played past the end
// of its slice.
func (p *Player) IsExhausted() bool {
	return !p.loop && p.cursor >= float64(len(p.data))
}

// Next returns the next interpolated sample and advances the cursor.
// Exhausted (non-looping, past-end) playback returns 0, per spec §4.D.
func (p *Player) Next() float32 {
	n := len(p.data)
	if n == 0 || p.cursor >= float64(n) {
		return 0
	}

	idx := int(math.Floor(p.cursor))
	frac := float32(p.cursor - float64(idx))
	y0 := p.data[idx]
	var y1 float32
	if idx+1 < n {
		y1 = p.data[idx+1]
	} else if p.loop {
		y1 = p.data[0]
	} else {
		y1 = y0
	}
	sample := interpolation.Linear(y0, y1, frac)

	p.cursor += p.speed * p.ratio
	if p.cursor >= float64(n) && p.loop {
		p.cursor = math.Mod(p.cursor, float64(n))
	}

	return sample
}

// Process fills buffer with successive samples — no allocations.
func (p *Player) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = p.Next()
	}
}
