package engine

import (
	"github.com/barelymusician/barelymusician/pkg/instrument"
	"github.com/barelymusician/barelymusician/pkg/voice"
)

// Instrument is a thin control-thread handle over an Engine-owned
// Controller; every method resolves the live Controller through the
// Engine's versioned lookup, so calling a method on a destroyed Instrument
// is a no-op returning false (spec §7 "use-after-destroy").
type Instrument struct {
	engine *Engine
	id     InstrumentID
}

// ID returns the instrument's versioned handle.
func (i *Instrument) ID() InstrumentID { return i.id }

func (i *Instrument) controller() (*instrument.Controller, bool) {
	slot, ok := i.engine.lookupInstrument(i.id)
	if !ok {
		return nil, false
	}
	return slot.controller, true
}

// SetControl sets an instrument-wide control, taking effect delaySeconds
// from now (0 for immediate).
func (i *Instrument) SetControl(typ instrument.ControlType, value float64, delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetControl(typ, value, delaySeconds)
}

// GetControl returns the controller's mirrored value for typ.
func (i *Instrument) GetControl(typ instrument.ControlType) float64 {
	c, ok := i.controller()
	if !ok {
		return 0
	}
	return c.GetControl(typ)
}

// SetNoteOn starts (or retriggers) pitch with the given initial note
// controls.
func (i *Instrument) SetNoteOn(pitch float64, controls []voice.NoteControl, delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetNoteOn(pitch, controls, delaySeconds)
}

// SetNoteOff releases pitch.
func (i *Instrument) SetNoteOff(pitch float64, delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetNoteOff(pitch, delaySeconds)
}

// SetNoteControl mutates a per-note control on an already-sounding pitch.
func (i *Instrument) SetNoteControl(pitch float64, typ instrument.NoteControlType, value float64, delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetNoteControl(pitch, typ, value, delaySeconds)
}

// SetAllNotesOff releases every currently active pitch.
func (i *Instrument) SetAllNotesOff(delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetAllNotesOff(delaySeconds)
}

// SetSampleData installs a new slice table.
func (i *Instrument) SetSampleData(slices []instrument.Slice, delaySeconds float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.SetSampleData(slices, delaySeconds)
}

// IsNoteOn reports whether pitch is currently marked on by the controller.
func (i *Instrument) IsNoteOn(pitch float64) bool {
	c, ok := i.controller()
	if !ok {
		return false
	}
	return c.IsNoteOn(pitch)
}
