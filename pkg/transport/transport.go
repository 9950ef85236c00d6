// Package transport implements the frame↔beat clock of spec §4.I: a tempo
// in beats-per-minute converted to a beats-per-frame rate recomputed only
// on SetTempo, applied incrementally as the audio thread advances.
package transport

// Transport tracks elapsed frames/seconds/beats at a given sample rate and
// tempo.
type Transport struct {
	sampleRate float64
	tempo      float64 // beats per minute

	beatsPerFrame float64

	frame     int64
	seconds   float64
	positionBeats float64
}

// New constructs a Transport at the given sample rate, tempo 120 BPM,
// position 0.
func New(sampleRate float64) *Transport {
	t := &Transport{sampleRate: sampleRate, tempo: 120.0}
	t.recompute()
	return t
}

func (t *Transport) recompute() {
	if t.sampleRate <= 0 {
		t.beatsPerFrame = 0
		return
	}
	t.beatsPerFrame = t.tempo / (60.0 * t.sampleRate)
}

// SetTempo sets the tempo in beats per minute. The new rate applies to the
// next BeatsAt/AdvanceFrames call; this method tracks no pending/effective
// split, and Engine.SetTempo calls it directly, so a tempo change takes
// effect at a buffer boundary, not at a frame inside a buffer. Per spec §3
// the only invariant is tempo >= 0 (0 is a valid "stopped clock" tempo);
// negative values are rejected.
func (t *Transport) SetTempo(bpm float64) {
	if bpm < 0 {
		return
	}
	t.tempo = bpm
	t.recompute()
}

// Tempo returns the current tempo in beats per minute.
func (t *Transport) Tempo() float64 { return t.tempo }

// Frame returns the current absolute sample frame.
func (t *Transport) Frame() int64 { return t.frame }

// Seconds returns the current elapsed time in seconds.
func (t *Transport) Seconds() float64 { return t.seconds }

// Position returns the current position in beats.
func (t *Transport) Position() float64 { return t.positionBeats }

// BeatsAt returns the position in beats the transport would reach after
// advancing by deltaFrames, without mutating state — used by the Engine to
// compute a Performer's next_position before calling AdvanceFrames.
func (t *Transport) BeatsAt(deltaFrames int64) float64 {
	return t.positionBeats + float64(deltaFrames)*t.beatsPerFrame
}

// AdvanceFrames advances the transport by deltaFrames samples, incrementing
// both the elapsed-seconds and position-in-beats clocks.
func (t *Transport) AdvanceFrames(deltaFrames int64) {
	if deltaFrames <= 0 {
		return
	}
	t.frame += deltaFrames
	if t.sampleRate > 0 {
		t.seconds += float64(deltaFrames) / t.sampleRate
	}
	t.positionBeats += float64(deltaFrames) * t.beatsPerFrame
}

// SetPosition seeks the transport directly to a beat position, used when a
// host scrubs the timeline.
func (t *Transport) SetPosition(beats float64) {
	t.positionBeats = beats
}
