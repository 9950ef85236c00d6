package engine

import (
	"github.com/barelymusician/barelymusician/pkg/bmerr"
	"github.com/barelymusician/barelymusician/pkg/performer"
	"github.com/barelymusician/barelymusician/pkg/pool"
)

// Performer is a thin control-thread handle over an Engine-owned
// performer.Performer, resolved through the Engine's versioned lookup on
// every call (spec §7 "use-after-destroy").
type Performer struct {
	engine *Engine
	id     PerformerID
}

// ID returns the performer's versioned handle.
func (p *Performer) ID() PerformerID { return p.id }

func (p *Performer) slot() (*performerSlot, bool) {
	return p.engine.lookupPerformer(p.id)
}

// Start begins playback.
func (p *Performer) Start() bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetPlaying(true)
	return true
}

// Stop halts playback, forcing End on every active task.
func (p *Performer) Stop() bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetPlaying(false)
	return true
}

// IsPlaying reports whether the performer is running.
func (p *Performer) IsPlaying() bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	return s.perf.IsPlaying()
}

// SetLoopBegin sets the loop region start, in beats.
func (p *Performer) SetLoopBegin(beats float64) bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetLoopBegin(beats)
	return true
}

// SetLoopLength sets the loop region length, in beats.
func (p *Performer) SetLoopLength(beats float64) bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetLoopLength(beats)
	return true
}

// SetLooping enables or disables looping.
func (p *Performer) SetLooping(looping bool) bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetLooping(looping)
	return true
}

// SetPosition seeks the performer to a beat position.
func (p *Performer) SetPosition(beats float64) bool {
	s, ok := p.slot()
	if !ok {
		return false
	}
	s.perf.SetPosition(beats)
	return true
}

// GetPosition returns the performer's current position in beats.
func (p *Performer) GetPosition() float64 {
	s, ok := p.slot()
	if !ok {
		return 0
	}
	return s.perf.Position()
}

// CreateTask schedules a new task at the given position/duration/priority,
// invoking onBegin/onEnd per spec §6's callback contract. Returns nil if
// the performer's task pool is exhausted or the handle is stale.
func (p *Performer) CreateTask(position, duration float64, priority int, onBegin, onEnd func()) *Task {
	s, ok := p.slot()
	if !ok {
		return nil
	}
	idx := s.tasks.Acquire()
	if idx == pool.Invalid {
		p.engine.logger.Warn("engine: %s", bmerr.ErrTaskPoolFull)
		return nil
	}
	ts := s.tasks.Get(idx)
	ts.generation++
	ts.task = &performer.Task{Position: position, Duration: duration, Priority: priority, Begin: onBegin, End: onEnd}
	s.perf.AddTask(ts.task)
	s.tasksOrder = append(s.tasksOrder, idx)

	return &Task{
		performer: p,
		id:        TaskID(makeHandle(ts.generation, idx)),
	}
}

// DestroyTask removes t from its performer. Per spec §9 "Callback
// ownership", destroying an active task fires neither Begin nor End. A
// stale or already-destroyed handle is a no-op.
func (p *Performer) DestroyTask(t *Task) {
	if t == nil {
		return
	}
	s, ok := p.slot()
	if !ok {
		return
	}
	idx := handleIndex(uint64(t.id))
	ts, ok := p.lookupTask(s, t.id)
	if !ok {
		return
	}
	s.perf.RemoveTask(ts.task)
	ts.task = nil
	for i, v := range s.tasksOrder {
		if v == idx {
			s.tasksOrder = append(s.tasksOrder[:i], s.tasksOrder[i+1:]...)
			break
		}
	}
	s.tasks.Release(idx)
}

func (p *Performer) lookupTask(s *performerSlot, id TaskID) (*taskSlot, bool) {
	idx := handleIndex(uint64(id))
	if idx == pool.Invalid || int(idx) > s.tasks.Cap() {
		return nil, false
	}
	ts := s.tasks.Get(idx)
	if ts.generation != handleGeneration(uint64(id)) || ts.task == nil {
		return nil, false
	}
	return ts, true
}
