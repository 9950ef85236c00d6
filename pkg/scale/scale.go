// Package scale is a supplemental helper enriching note-control ergonomics,
// ported from original_source's barelyapi::GetNoteIndex (musician and
// engine variants share the same contract: a scale is a cumulative-interval
// table within one octave, indexed with wraparound). Not part of any
// [MODULE] in the core engine — a host quantizes a scale index into a
// pitch here, then feeds the result into Controller.SetNoteOn like any
// other pitch.
package scale

import "math"

// semitonesPerOctave is the semitone offset added for each octave the
// scale index wraps past; the index itself wraps against the scale's
// length.
const semitonesPerOctave = 12.0

// Scale is a set of cumulative semitone intervals within one octave, in
// increasing order starting from 0 (e.g. a major scale is
// {0, 2, 4, 5, 7, 9, 11}).
type Scale struct {
	intervals []float64
}

// New constructs a Scale from cumulative semitone intervals.
func New(intervals []float64) Scale {
	cp := make([]float64, len(intervals))
	copy(cp, intervals)
	return Scale{intervals: cp}
}

// NoteIndex quantizes scaleIndex (which may be negative or exceed the
// scale's length) against the scale, wrapping by octave, and returns the
// result as a pitch in octaves relative to 440 Hz — the same units
// Controller.SetNoteOn expects — by dividing the semitone result by 12.
func (s Scale) NoteIndex(scaleIndex float64) float64 {
	n := len(s.intervals)
	if n == 0 {
		return 0
	}
	index := int(math.Floor(scaleIndex))
	octave := int(math.Floor(float64(index) / float64(n)))
	degree := index - octave*n
	semitones := float64(octave)*semitonesPerOctave + s.intervals[degree]
	return semitones / semitonesPerOctave
}
