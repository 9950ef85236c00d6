// Package engine implements the top-level container of spec §4.J: it owns
// every Instrument and Performer, the shared Transport, and the two random
// streams of spec §4.C, and exposes the external API of spec §6. Grounded
// on the teacher's pkg/framework/plugin.Processor for the
// Initialize/Process lifecycle shape, adapted from one-processor-per-plugin
// to many-processors-owned-by-one-container.
package engine

import (
	"sync/atomic"

	"github.com/barelymusician/barelymusician/internal/log"
	"github.com/barelymusician/barelymusician/pkg/bmerr"
	"github.com/barelymusician/barelymusician/pkg/instrument"
	"github.com/barelymusician/barelymusician/pkg/performer"
	"github.com/barelymusician/barelymusician/pkg/pool"
	"github.com/barelymusician/barelymusician/pkg/queue"
	"github.com/barelymusician/barelymusician/pkg/random"
	"github.com/barelymusician/barelymusician/pkg/transport"
)

// MaxInstruments and MaxPerformers bound the Engine's pool capacities.
const (
	MaxInstruments       = 64
	MaxPerformers        = 32
	MaxTasksPerPerformer = 64
)

type instrumentSlot struct {
	controller *instrument.Controller
	processor  *instrument.Processor
	generation uint32
	doomed     atomic.Bool
	doomedFor  int
}

type taskSlot struct {
	task       *performer.Task
	generation uint32
}

type performerSlot struct {
	perf       *performer.Performer
	generation uint32
	tasks      *pool.Pool[taskSlot]
	tasksOrder []uint32
}

// Engine owns the transport, every instrument, and every performer. Its
// control-surface methods are called from the control thread; Process is
// called only from the audio thread (spec §5).
type Engine struct {
	sampleRate float64
	transport  *transport.Transport

	// frameClock is the shared "atomic tempo cell"-style cross-thread cell
	// of spec §5: every Instrument's Controller reads it to timestamp a
	// delayed control message. It is advanced to the current buffer's
	// begin_frame at the top of every Process (and to the transport's
	// current frame on every control-thread Update), so a Controller call
	// made between Process invocations always schedules relative to the
	// most recently known audio position, not a frame frozen at the
	// instrument's creation time.
	frameClock *atomic.Int64

	mainRNG  *random.Source
	audioRNG *random.Source

	logger *log.Logger

	instruments       *pool.Pool[instrumentSlot]
	instrumentsActive []uint32

	performers       *pool.Pool[performerSlot]
	performersActive []uint32
}

// New constructs an Engine rendering at sampleRate, seeded with seed for
// its two independent random streams (spec §4.C: mainRNG for the control
// thread, audioRNG for the audio thread — never shared between them).
func New(sampleRate float64, seed int64) *Engine {
	return &Engine{
		sampleRate:  sampleRate,
		transport:   transport.New(sampleRate),
		frameClock:  &atomic.Int64{},
		mainRNG:     random.New(seed),
		audioRNG:    random.New(seed + 1),
		logger:      log.Default(),
		instruments: pool.New[instrumentSlot](MaxInstruments),
		performers:  pool.New[performerSlot](MaxPerformers),
	}
}

// SetTempo sets the transport tempo in beats per minute.
func (e *Engine) SetTempo(bpm float64) { e.transport.SetTempo(bpm) }

// GetTempo returns the transport tempo in beats per minute.
func (e *Engine) GetTempo() float64 { return e.transport.Tempo() }

// GetPosition returns the transport's current position in beats.
func (e *Engine) GetPosition() float64 { return e.transport.Position() }

// Update advances non-audio transport and performer state when no audio is
// running — a control-thread convenience (spec §6). deltaSeconds is the
// elapsed wall-clock time since the previous Update/Process call.
func (e *Engine) Update(deltaSeconds float64) {
	if deltaSeconds <= 0 {
		return
	}
	deltaFrames := int64(deltaSeconds * e.sampleRate)
	if deltaFrames <= 0 {
		return
	}
	e.frameClock.Store(e.transport.Frame())
	nextBeats := e.transport.BeatsAt(deltaFrames)
	for _, idx := range e.performersActive {
		e.performers.Get(idx).perf.Update(nextBeats)
	}
	e.transport.AdvanceFrames(deltaFrames)
}

// Process renders frames samples of channels-wide interleaved audio into
// out, summing every instrument's contribution, per the Engine.Process
// pseudo-contract of spec §4.J:
//  1. compute end_frame;
//  2. run each Performer's Update up to end_frame (in beats);
//  3. render each Instrument Processor into out;
//  4. advance the Transport by frames.
//
// timestampSeconds is accepted for API parity with spec §6 but is not
// consulted: the Engine derives begin_frame from its own Transport, which
// the host keeps in sync by calling Process once per contiguous buffer.
func (e *Engine) Process(out []float32, channels, frames int, timestampSeconds float64) {
	for i := range out {
		out[i] = 0
	}

	beginFrame := e.transport.Frame()
	e.frameClock.Store(beginFrame)
	nextBeats := e.transport.BeatsAt(int64(frames))
	for _, idx := range e.performersActive {
		e.performers.Get(idx).perf.Update(nextBeats)
	}

	kept := e.instrumentsActive[:0]
	for _, idx := range e.instrumentsActive {
		slot := e.instruments.Get(idx)
		if slot.doomed.Load() {
			slot.doomedFor++
			if slot.doomedFor >= 2 {
				e.instruments.Release(idx)
				continue
			}
		}
		slot.processor.Process(out, frames, beginFrame)
		kept = append(kept, idx)
	}
	e.instrumentsActive = kept

	e.transport.AdvanceFrames(int64(frames))
}

// CreateInstrument allocates a new Instrument with the given channel count
// and initial polyphony, returning its control-thread handle. Returns nil
// if the Engine's instrument pool is exhausted.
func (e *Engine) CreateInstrument(channels, voiceCount int) *Instrument {
	idx := e.instruments.Acquire()
	if idx == pool.Invalid {
		e.logger.Warn("engine: instrument pool exhausted")
		return nil
	}
	slot := e.instruments.Get(idx)
	slot.generation++
	slot.doomed.Store(false)
	slot.doomedFor = 0

	q := queue.New()
	slot.controller = instrument.NewController(e.sampleRate, e.frameClock, q)
	slot.processor = instrument.NewProcessor(q, e.sampleRate, channels, e.audioRNG, voiceCount)

	e.instrumentsActive = append(e.instrumentsActive, idx)
	return &Instrument{engine: e, id: InstrumentID(makeHandle(slot.generation, idx))}
}

// DestroyInstrument marks the instrument doomed; the audio thread unlinks
// and reclaims its pool slot after observing the flag across two
// consecutive Process calls (spec §5 "Cancellation"). A stale or already-
// destroyed handle is a no-op.
func (e *Engine) DestroyInstrument(inst *Instrument) {
	if inst == nil {
		return
	}
	slot, ok := e.lookupInstrument(inst.id)
	if !ok {
		return
	}
	slot.doomed.Store(true)
}

func (e *Engine) lookupInstrument(id InstrumentID) (*instrumentSlot, bool) {
	idx := handleIndex(uint64(id))
	if idx == pool.Invalid || int(idx) > e.instruments.Cap() {
		return nil, false
	}
	slot := e.instruments.Get(idx)
	if slot.generation != handleGeneration(uint64(id)) || slot.controller == nil {
		e.logger.Debug("engine: %s", bmerr.ErrStaleHandle)
		return nil, false
	}
	if slot.doomed.Load() {
		return nil, false
	}
	return slot, true
}

// CreatePerformer allocates a new Performer, returning its handle. Returns
// nil if the Engine's performer pool is exhausted.
func (e *Engine) CreatePerformer() *Performer {
	idx := e.performers.Acquire()
	if idx == pool.Invalid {
		e.logger.Warn("engine: performer pool exhausted")
		return nil
	}
	slot := e.performers.Get(idx)
	slot.generation++
	slot.perf = performer.New()
	slot.tasks = pool.New[taskSlot](MaxTasksPerPerformer)
	slot.tasksOrder = nil

	e.performersActive = append(e.performersActive, idx)
	return &Performer{engine: e, id: PerformerID(makeHandle(slot.generation, idx))}
}

// DestroyPerformer immediately removes perf and its tasks. Performers are
// control-thread-only objects (spec §5), so unlike instruments no two-phase
// teardown is needed — Process never touches a performer's own memory,
// only calls Update through the handle the Engine still owns.
func (e *Engine) DestroyPerformer(perf *Performer) {
	if perf == nil {
		return
	}
	idx := handleIndex(uint64(perf.id))
	slot, ok := e.lookupPerformer(perf.id)
	if !ok {
		return
	}
	slot.perf.SetPlaying(false)
	slot.perf = nil
	slot.tasks = nil

	for i, v := range e.performersActive {
		if v == idx {
			e.performersActive = append(e.performersActive[:i], e.performersActive[i+1:]...)
			break
		}
	}
	e.performers.Release(idx)
}

func (e *Engine) lookupPerformer(id PerformerID) (*performerSlot, bool) {
	idx := handleIndex(uint64(id))
	if idx == pool.Invalid || int(idx) > e.performers.Cap() {
		return nil, false
	}
	slot := e.performers.Get(idx)
	if slot.generation != handleGeneration(uint64(id)) || slot.perf == nil {
		e.logger.Debug("engine: %s", bmerr.ErrStaleHandle)
		return nil, false
	}
	return slot, true
}
