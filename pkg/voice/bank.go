package voice

import (
	"math"

	"github.com/barelymusician/barelymusician/pkg/pool"
	"github.com/barelymusician/barelymusician/pkg/random"
)

// DefaultVoiceCount is the default polyphony of an instrument, per spec §4.F.
const DefaultVoiceCount = 32

// Bank is a fixed-capacity voice pool plus a pitch→voice-index lookup, the
// audio-thread voice allocator described in spec §4.F. Every Voice is
// allocated at construction; the active list and the pitch map are plain
// Go slice and map values that can still allocate as they grow, and
// AllNotesOff replaces the pitch map with a new one.
type Bank struct {
	pool        *pool.Pool[Voice]
	active      []uint32 // indices currently pool-acquired, order = allocation order
	pitchToIdx  map[float64]uint32
	maxVoices   int
}

// NewBank constructs a bank of capacity voiceCount, sharing params and the
// audio-thread random stream across every voice.
func NewBank(sampleRate float64, noise *random.Source, params *Params, voiceCount int) *Bank {
	if voiceCount < 1 {
		voiceCount = 1
	}
	p := pool.New[Voice](voiceCount)
	for i := 1; i <= voiceCount; i++ {
		*p.Get(uint32(i)) = *New(sampleRate, noise, params)
	}
	return &Bank{
		pool:       p,
		pitchToIdx: make(map[float64]uint32),
		maxVoices:  voiceCount,
	}
}

// SetMaxVoices changes polyphony, clamped to the bank's pool capacity.
func (b *Bank) SetMaxVoices(n int) {
	if n < 1 {
		n = 1
	}
	if n > b.pool.Cap() {
		n = b.pool.Cap()
	}
	b.maxVoices = n
}

// NoteOn allocates (or retriggers) a voice for pitch. It never fails: if no
// inactive voice is available, the quietest active voice (oldest-age
// tiebreak) is stolen.
func (b *Bank) NoteOn(pitch float64, controls []NoteControl) {
	if idx, ok := b.pitchToIdx[pitch]; ok {
		b.pool.Get(idx).TriggerNote(pitch, controls)
		return
	}

	idx := b.acquireVoice()
	if evictedPitch, had := b.pitchFor(idx); had {
		delete(b.pitchToIdx, evictedPitch)
	}
	b.pool.Get(idx).TriggerNote(pitch, controls)
	b.pitchToIdx[pitch] = idx
}

// NoteOff releases the voice assigned to pitch into its envelope release
// tail; the voice stays "active" (per Voice.IsActive) until that tail
// completes, at which point ReapIdle reclaims it.
func (b *Bank) NoteOff(pitch float64) {
	if idx, ok := b.pitchToIdx[pitch]; ok {
		b.pool.Get(idx).ReleaseNote()
		delete(b.pitchToIdx, pitch)
	}
}

// SetNoteControl mutates a per-note control on the voice assigned to pitch,
// a no-op if the pitch is not currently sounding.
func (b *Bank) SetNoteControl(pitch float64, typ NoteControlType, value float64) {
	if idx, ok := b.pitchToIdx[pitch]; ok {
		b.pool.Get(idx).SetNoteControl(typ, value)
	}
}

// IsNoteOn reports whether pitch currently has an assigned voice.
func (b *Bank) IsNoteOn(pitch float64) bool {
	_, ok := b.pitchToIdx[pitch]
	return ok
}

// AllNotesOff forces every active voice into release.
func (b *Bank) AllNotesOff() {
	for _, idx := range b.active {
		b.pool.Get(idx).ReleaseNote()
	}
	b.pitchToIdx = make(map[float64]uint32)
}

// ForEachActive calls fn for every currently acquired voice, in allocation
// order — the Processor uses this to mix voice output each sample.
func (b *Bank) ForEachActive(fn func(v *Voice)) {
	for _, idx := range b.active {
		fn(b.pool.Get(idx))
	}
}

// ReapIdle releases voices whose envelope has returned to idle back to the
// pool, per spec §4.F step 4. Must be called once per buffer after
// rendering, never mid-sample.
func (b *Bank) ReapIdle() {
	kept := b.active[:0]
	for _, idx := range b.active {
		v := b.pool.Get(idx)
		if v.IsActive() {
			kept = append(kept, idx)
			continue
		}
		v.active = false
		b.pool.Release(idx)
	}
	b.active = kept
}

// ActiveCount returns the number of currently acquired voices.
func (b *Bank) ActiveCount() int {
	return len(b.active)
}

func (b *Bank) pitchFor(idx uint32) (float64, bool) {
	for pitch, i := range b.pitchToIdx {
		if i == idx {
			return pitch, true
		}
	}
	return 0, false
}

// acquireVoice returns a free voice index within the current maxVoices
// window, stealing the quietest active voice (oldest-age tiebreak) if none
// is free — spec §4.F "Voice stealing".
func (b *Bank) acquireVoice() uint32 {
	if len(b.active) < b.maxVoices {
		idx := b.pool.Acquire()
		if idx != pool.Invalid {
			b.active = append(b.active, idx)
			return idx
		}
	}
	return b.steal()
}

func (b *Bank) steal() uint32 {
	var bestIdx uint32
	bestPos := -1
	bestAmp := math.MaxFloat64
	var bestAge int64 = -1

	for pos, idx := range b.active {
		v := b.pool.Get(idx)
		amp := v.Amplitude()
		age := v.Age()
		if amp < bestAmp || (amp == bestAmp && age > bestAge) {
			bestAmp = amp
			bestAge = age
			bestIdx = idx
			bestPos = pos
		}
	}

	if bestPos < 0 {
		// No active voices at all (maxVoices == 0 edge case): acquire fresh.
		idx := b.pool.Acquire()
		b.active = append(b.active, idx)
		return idx
	}

	b.pool.Get(bestIdx).Stop()
	return bestIdx
}
