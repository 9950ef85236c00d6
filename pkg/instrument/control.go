// Package instrument implements the two-halves Instrument of spec §3/§4.F/§4.G:
// a control-thread Controller and an audio-thread Processor, communicating
// only through a queue.Queue. Grounded on the teacher's
// pkg/framework/plugin.Processor lifecycle (Initialize/SetActive/Process)
// and pkg/midi/events.go's tagged-event model, flattened here into
// queue.Message since the audio-thread side must never type-switch through
// an allocated interface.
package instrument

import (
	"math"
	"sync/atomic"

	"github.com/barelymusician/barelymusician/pkg/bmerr"
	"github.com/barelymusician/barelymusician/pkg/dsp/filter"
	"github.com/barelymusician/barelymusician/pkg/dsp/oscillator"
	"github.com/barelymusician/barelymusician/pkg/queue"
	"github.com/barelymusician/barelymusician/pkg/voice"
)

// ControlType enumerates the instrument-wide controls of spec §6.
type ControlType uint32

const (
	ControlGain ControlType = iota
	ControlPitchShift
	ControlOscMix
	ControlOscMode
	ControlOscShape
	ControlOscPitchShift
	ControlSliceMode
	ControlFilterType
	ControlFilterFrequency
	ControlFilterQ
	ControlAttack
	ControlDecay
	ControlSustain
	ControlRelease
	ControlVoiceCount
	ControlRetrigger
)

// NoteControlType enumerates per-note controls (spec §6).
type NoteControlType = voice.NoteControlType

const (
	NoteControlPitchShift = voice.NoteControlPitchShift
	NoteControlGain       = voice.NoteControlGain
)

// Slice is an immutable PCM range with a root pitch (spec §3). Samples is
// borrowed from the host; the engine never copies or frees it. Aliased to
// queue.Slice so SetSampleData can hand the caller's slice table straight
// into a Message without a conversion pass, keeping the only cross-thread
// shared state the MessageQueue itself (spec §5).
type Slice = queue.Slice

// Controller is the control-thread half of an Instrument: it validates
// input, mirrors user-visible state, and posts messages for the Processor
// to consume. It never reads Processor state (spec §4.G).
type Controller struct {
	sampleRate float64
	frameClock *atomic.Int64 // read-only view of the engine's current audio frame

	queue *queue.Queue

	controls   map[ControlType]float64
	activeNote map[float64]bool

	// lastErr holds the bmerr sentinel for the most recent rejected call,
	// so a host that only checks the bool return can still inspect the
	// reason via Err() without every setter's signature changing (spec §6
	// keeps "setters return bool success"; spec §7 still wants the
	// invalid-argument/capacity categories distinguishable by sentinel).
	lastErr error
}

// Err returns the bmerr sentinel for the most recently rejected call, or
// nil if the last call succeeded.
func (c *Controller) Err() error {
	return c.lastErr
}

// enqueue posts msg at frame, classifying a full queue as
// bmerr.ErrQueueFull (spec §7 "capacity exhaustion").
func (c *Controller) enqueue(frame int64, msg queue.Message) error {
	if !c.queue.Add(frame, msg) {
		return bmerr.ErrQueueFull
	}
	return nil
}

// NewController constructs a Controller posting into q, reading the current
// frame from frameClock — a single cell shared by every Instrument on the
// Engine, advanced to the buffer's begin_frame at the top of every Process
// and to the transport's current frame on every control-thread Update (the
// "atomic tempo cell"-style shared cell of spec §5, here a frame counter
// instead of a tempo value).
func NewController(sampleRate float64, frameClock *atomic.Int64, q *queue.Queue) *Controller {
	return &Controller{
		sampleRate: sampleRate,
		frameClock: frameClock,
		queue:      q,
		controls:   defaultControls(),
		activeNote: make(map[float64]bool),
	}
}

func defaultControls() map[ControlType]float64 {
	return map[ControlType]float64{
		ControlGain:            1.0,
		ControlPitchShift:      0.0,
		ControlOscMix:          0.0,
		ControlOscMode:         float64(voice.OscModeMix),
		ControlOscShape:        float64(oscillator.ShapeSine),
		ControlOscPitchShift:   0.0,
		ControlSliceMode:       float64(voice.SliceModeSustain),
		ControlFilterType:      float64(filter.TypeNone),
		ControlFilterFrequency: 20000.0,
		ControlFilterQ:         0.707,
		ControlAttack:          0.01,
		ControlDecay:           0.1,
		ControlSustain:         0.7,
		ControlRelease:         0.3,
		ControlVoiceCount:      float64(voice.DefaultVoiceCount),
		ControlRetrigger:       0.0,
	}
}

// delayFrames converts an optional delay in seconds to a frame offset from
// the controller's current view of the audio clock.
func (c *Controller) delayFrames(delaySeconds float64) int64 {
	now := int64(0)
	if c.frameClock != nil {
		now = c.frameClock.Load()
	}
	if delaySeconds <= 0 {
		return now
	}
	return now + int64(delaySeconds*c.sampleRate)
}

func validControlValue(typ ControlType, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	switch typ {
	case ControlOscMode:
		return value >= float64(voice.OscModeMix) && value <= float64(voice.OscModeRing)
	case ControlOscShape:
		return value >= float64(oscillator.ShapeNone) && value <= float64(oscillator.ShapeNoise)
	case ControlSliceMode:
		return value >= float64(voice.SliceModeSustain) && value <= float64(voice.SliceModeOneShot)
	case ControlFilterType:
		return value >= float64(filter.TypeNone) && value <= float64(filter.TypeHighPass)
	case ControlVoiceCount:
		return value >= 1
	case ControlFilterFrequency, ControlFilterQ, ControlAttack, ControlDecay, ControlRelease:
		return value >= 0
	case ControlSustain, ControlOscMix:
		return value >= 0 && value <= 1
	case ControlRetrigger:
		return value == 0 || value == 1
	}
	return true
}

// SetControl validates and applies an instrument-wide control, enqueuing a
// ControlChange message with an optional delay in seconds. Returns false
// (without enqueuing) on an invalid value, per spec §7.
func (c *Controller) SetControl(typ ControlType, value float64, delaySeconds float64) bool {
	if !validControlValue(typ, value) {
		c.lastErr = bmerr.ErrInvalidArgument
		return false
	}
	c.controls[typ] = value
	frame := c.delayFrames(delaySeconds)
	c.lastErr = c.enqueue(frame, queue.Message{
		Kind:        queue.KindControlChange,
		ControlType: uint32(typ),
		Value:       value,
	})
	return c.lastErr == nil
}

// GetControl returns the controller's mirrored value for typ.
func (c *Controller) GetControl(typ ControlType) float64 {
	return c.controls[typ]
}

// SetNoteOn enqueues a NoteOn with up to queue.MaxNoteControls initial note
// controls. Returns false if pitch or any control value is invalid.
func (c *Controller) SetNoteOn(pitch float64, controls []voice.NoteControl, delaySeconds float64) bool {
	if math.IsNaN(pitch) || math.IsInf(pitch, 0) || len(controls) > queue.MaxNoteControls {
		c.lastErr = bmerr.ErrInvalidArgument
		return false
	}
	msg := queue.Message{Kind: queue.KindNoteOn, Pitch: pitch, NoteControlsLen: len(controls)}
	for i, nc := range controls {
		if math.IsNaN(nc.Value) || math.IsInf(nc.Value, 0) {
			c.lastErr = bmerr.ErrInvalidArgument
			return false
		}
		msg.NoteControls[i] = queue.NoteControl{Type: uint32(nc.Type), Value: nc.Value}
	}
	frame := c.delayFrames(delaySeconds)
	if c.lastErr = c.enqueue(frame, msg); c.lastErr != nil {
		return false
	}
	c.activeNote[pitch] = true
	return true
}

// SetNoteOff enqueues a NoteOff for pitch. A no-op (returns true) if the
// pitch isn't currently marked on, mirroring the "use-after-destroy is a
// no-op" policy applied to a lighter-weight condition.
func (c *Controller) SetNoteOff(pitch float64, delaySeconds float64) bool {
	if !c.activeNote[pitch] {
		c.lastErr = nil
		return true
	}
	frame := c.delayFrames(delaySeconds)
	c.lastErr = c.enqueue(frame, queue.Message{Kind: queue.KindNoteOff, Pitch: pitch})
	if c.lastErr == nil {
		delete(c.activeNote, pitch)
	}
	return c.lastErr == nil
}

// SetNoteControl enqueues a NoteControlChange. Returns false if the pitch
// isn't active or the value is invalid.
func (c *Controller) SetNoteControl(pitch float64, typ voice.NoteControlType, value float64, delaySeconds float64) bool {
	if !c.activeNote[pitch] || math.IsNaN(value) || math.IsInf(value, 0) {
		c.lastErr = bmerr.ErrInvalidArgument
		return false
	}
	frame := c.delayFrames(delaySeconds)
	c.lastErr = c.enqueue(frame, queue.Message{
		Kind:        queue.KindNoteControlChange,
		Pitch:       pitch,
		ControlType: uint32(typ),
		Value:       value,
	})
	return c.lastErr == nil
}

// SetAllNotesOff enqueues a NoteOff for every currently active pitch.
func (c *Controller) SetAllNotesOff(delaySeconds float64) bool {
	ok := true
	for pitch := range c.activeNote {
		if !c.SetNoteOff(pitch, delaySeconds) {
			ok = false
		}
	}
	return ok
}

// IsNoteOn reports whether the controller believes pitch is currently on.
// This reflects control-thread intent, not Processor voice state (spec
// §4.G: Controller never reads Processor state).
func (c *Controller) IsNoteOn(pitch float64) bool {
	return c.activeNote[pitch]
}

// SetSampleData enqueues a SampleData message carrying the new slice table
// directly — Samples is host-owned, read-only memory, so handing its slice
// header across the ring is not a second piece of shared mutable state
// (spec §5).
func (c *Controller) SetSampleData(slices []Slice, delaySeconds float64) bool {
	for _, s := range slices {
		if s.SampleRate <= 0 || len(s.Samples) == 0 {
			c.lastErr = bmerr.ErrInvalidArgument
			return false
		}
	}
	frame := c.delayFrames(delaySeconds)
	c.lastErr = c.enqueue(frame, queue.Message{
		Kind:   queue.KindSampleData,
		Slices: slices,
	})
	return c.lastErr == nil
}
