// Package bmerr defines the sentinel errors returned at the control-thread
// boundary of the engine. Audio-thread code never returns an error; invalid
// state there is a silent no-op (see spec §7).
package bmerr

import "errors"

var (
	// ErrInvalidArgument is returned when a control value is out of range,
	// NaN, or otherwise fails validation at the control boundary.
	ErrInvalidArgument = errors.New("bmerr: invalid argument")

	// ErrQueueFull is returned when a message could not be enqueued because
	// the instrument's message queue has reached capacity.
	ErrQueueFull = errors.New("bmerr: message queue full")

	// ErrStaleHandle is returned when an operation targets a handle whose
	// generation no longer matches the live object (use-after-destroy).
	ErrStaleHandle = errors.New("bmerr: stale handle")

	// ErrTaskPoolFull is returned when a performer has no free task slots.
	ErrTaskPoolFull = errors.New("bmerr: task pool full")

	// ErrVoicePoolFull is only used in tests/diagnostics: in production the
	// voice pool always steals rather than failing (spec §7).
	ErrVoicePoolFull = errors.New("bmerr: voice pool full")
)
