// Package performer implements the beat-position task scheduler of spec
// §4.H: an ordered set of tasks a Performer fires as the transport crosses
// their positions, with looping and an End-before-Begin tie-break so
// layered tasks at the same position hand off cleanly. The dirty-flag +
// lazy-sort pattern is grounded on the teacher's pkg/midi.EventQueue
// (`sorted bool`, re-sorted only when read after a write), adapted from
// mutex-protected (midi.EventQueue serves both a producer and a consumer
// goroutine) to single-owner-thread (a Performer is touched only from the
// control thread, via Engine.Process, per spec §5).
package performer

import "sort"

// Task is one scheduled callback. A Task with Duration <= 0 fires Begin
// only, immediately transitioning back to inactive; a Task with Duration >
// 0 fires Begin on trigger and an implicit End at Position+Duration.
type Task struct {
	Position float64 // trigger position, in beats
	Priority int      // lower fires first among equal positions
	Duration float64  // <= 0 means instantaneous (Begin only)

	Begin func()
	End   func()

	active bool
}

// IsActive reports whether the task is currently between Begin and End.
func (t *Task) IsActive() bool { return t.active }

// Performer holds an ordered set of tasks and fires them as the transport
// advances past their positions (spec §4.H).
type Performer struct {
	tasks    []*Task
	sorted   bool
	position float64

	playing    bool
	looping    bool
	loopBegin  float64
	loopLength float64
}

// New constructs an idle, non-looping Performer at position 0.
func New() *Performer {
	return &Performer{sorted: true, loopLength: 1}
}

// AddTask registers a task. The Performer re-sorts lazily on the next
// Update, mirroring the teacher's EventQueue dirty-flag idiom.
func (p *Performer) AddTask(t *Task) {
	p.tasks = append(p.tasks, t)
	p.sorted = false
}

// Touch marks the task set dirty, forcing a re-sort on the next Update.
// Callers that mutate a Task's Position or Priority in place after
// AddTask must call Touch so the new ordering takes effect.
func (p *Performer) Touch() { p.sorted = false }

// RemoveTask unregisters t. Per spec §9 "Callback ownership", destroying a
// task synchronously invokes neither Begin nor End, even if it was active —
// the task's state simply vanishes.
func (p *Performer) RemoveTask(t *Task) {
	for i, task := range p.tasks {
		if task == t {
			task.active = false
			p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
			return
		}
	}
}

// SetPlaying starts or stops the performer. Stopping forces End on every
// active task (spec §4.H state machine).
func (p *Performer) SetPlaying(playing bool) {
	if p.playing && !playing {
		p.stopAllActive()
	}
	p.playing = playing
}

// IsPlaying reports whether the performer is running.
func (p *Performer) IsPlaying() bool { return p.playing }

// Position returns the performer's current position in beats.
func (p *Performer) Position() float64 { return p.position }

// SetPosition seeks the performer directly, forcing End on any active task
// (a seek is not a continuous advance, so no task between the old and new
// position is fired).
func (p *Performer) SetPosition(position float64) {
	p.stopAllActive()
	p.position = position
}

// SetLooping enables or disables looping.
func (p *Performer) SetLooping(looping bool) { p.looping = looping }

// IsLooping reports whether looping is enabled.
func (p *Performer) IsLooping() bool { return p.looping }

// SetLoopBegin sets the loop region start, in beats.
func (p *Performer) SetLoopBegin(beginBeats float64) { p.loopBegin = beginBeats }

// LoopBegin returns the loop region start, in beats.
func (p *Performer) LoopBegin() float64 { return p.loopBegin }

// SetLoopLength sets the loop region length, in beats. Values <= 0 are
// clamped to a small positive floor so Update never divides by zero or
// spins forever re-wrapping a zero-length loop.
func (p *Performer) SetLoopLength(lengthBeats float64) {
	if lengthBeats <= 0 {
		lengthBeats = 1e-9
	}
	p.loopLength = lengthBeats
}

// LoopLength returns the loop region length, in beats.
func (p *Performer) LoopLength() float64 { return p.loopLength }

func (p *Performer) stopAllActive() {
	for _, t := range p.tasks {
		if t.active {
			t.active = false
			if t.End != nil {
				t.End()
			}
		}
	}
}

func (p *Performer) ensureSorted() {
	if p.sorted {
		return
	}
	sort.SliceStable(p.tasks, func(i, j int) bool {
		if p.tasks[i].Position != p.tasks[j].Position {
			return p.tasks[i].Position < p.tasks[j].Position
		}
		return p.tasks[i].Priority < p.tasks[j].Priority
	})
	p.sorted = true
}

// Update advances the performer from its current position towards
// nextPosition (both in beats), firing Begin/End for every task whose
// trigger time lies in [position, nextPosition), per spec §4.H. If looping
// is enabled and nextPosition reaches the end of the loop region, Update
// wraps as many times as the interval requires, emitting End for any task
// still active across each wrap.
func (p *Performer) Update(nextPosition float64) {
	if !p.playing {
		p.position = nextPosition
		return
	}
	p.ensureSorted()

	for p.position < nextPosition {
		loopEnd := p.loopBegin + p.loopLength
		segmentEnd := nextPosition
		wrapping := false
		if p.looping && loopEnd > p.position && segmentEnd >= loopEnd {
			segmentEnd = loopEnd
			wrapping = true
		}

		p.fireInRange(p.position, segmentEnd)
		p.position = segmentEnd

		if wrapping {
			p.stopAllActive()
			p.position = p.loopBegin
			remaining := nextPosition - segmentEnd
			nextPosition = p.loopBegin + remaining
			if remaining <= 0 {
				break
			}
			continue
		}
		break
	}
	p.position = nextPosition
}

// fireInRange fires every task trigger (and implicit End) in [from, to),
// in (position, priority) order with End-before-Begin at equal positions.
func (p *Performer) fireInRange(from, to float64) {
	type event struct {
		pos      float64
		priority int
		isEnd    bool
		task     *Task
	}
	var events []event
	for _, t := range p.tasks {
		begins := t.Position >= from && t.Position < to
		if begins {
			events = append(events, event{pos: t.Position, priority: t.Priority, isEnd: false, task: t})
		}
		if t.Duration > 0 && (t.active || begins) {
			endPos := t.Position + t.Duration
			if endPos >= from && endPos < to {
				events = append(events, event{pos: endPos, priority: t.Priority, isEnd: true, task: t})
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		if events[i].priority != events[j].priority {
			return events[i].priority < events[j].priority
		}
		// Clean-before-dirty: End fires before Begin at an identical
		// (position, priority).
		return events[i].isEnd && !events[j].isEnd
	})

	for _, e := range events {
		if e.isEnd {
			if e.task.active {
				e.task.active = false
				if e.task.End != nil {
					e.task.End()
				}
			}
			continue
		}
		if e.task.active {
			continue
		}
		if e.task.Duration > 0 {
			e.task.active = true
		}
		if e.task.Begin != nil {
			e.task.Begin()
		}
		if e.task.Duration <= 0 {
			e.task.active = false
		}
	}
}
