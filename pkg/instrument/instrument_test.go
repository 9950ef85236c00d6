package instrument

import (
	"sync/atomic"
	"testing"

	"github.com/barelymusician/barelymusician/pkg/bmerr"
	"github.com/barelymusician/barelymusician/pkg/dsp/filter"
	"github.com/barelymusician/barelymusician/pkg/dsp/oscillator"
	"github.com/barelymusician/barelymusician/pkg/queue"
	"github.com/barelymusician/barelymusician/pkg/random"
	"github.com/barelymusician/barelymusician/pkg/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRate = 48000.0

func newTestPair(channels, voices int) (*Controller, *Processor, *atomic.Int64) {
	q := queue.New()
	clock := &atomic.Int64{}
	c := NewController(sampleRate, clock, q)
	p := NewProcessor(q, sampleRate, channels, random.New(1), voices)
	return c, p, clock
}

func TestController_SetControlRejectsInvalidEnum(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	assert.False(t, c.SetControl(ControlOscMode, 99, 0))
	assert.ErrorIs(t, c.Err(), bmerr.ErrInvalidArgument)
}

func TestController_SetControlRejectsNaN(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	assert.False(t, c.SetControl(ControlGain, nan(), 0))
}

func nan() float64 { var z float64; return z / z }

func TestController_SetControlMirrorsAndEnqueues(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	require.True(t, c.SetControl(ControlGain, 0.5, 0))
	assert.Equal(t, 0.5, c.GetControl(ControlGain))
}

func TestController_SetNoteOnTracksActiveState(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	require.True(t, c.SetNoteOn(0, nil, 0))
	assert.True(t, c.IsNoteOn(0))
	require.True(t, c.SetNoteOff(0, 0))
	assert.False(t, c.IsNoteOn(0))
}

func TestController_SetNoteControlRejectsInactivePitch(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	assert.False(t, c.SetNoteControl(5, voice.NoteControlGain, 0.5, 0))
	assert.ErrorIs(t, c.Err(), bmerr.ErrInvalidArgument)
}

func TestController_SetAllNotesOffClearsEveryPitch(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	c.SetNoteOn(1, nil, 0)
	c.SetNoteOn(2, nil, 0)
	require.True(t, c.SetAllNotesOff(0))
	assert.False(t, c.IsNoteOn(1))
	assert.False(t, c.IsNoteOn(2))
}

func TestController_QueueFullReturnsQueueFullError(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	for i := 0; i < queue.Capacity*2; i++ {
		c.SetControl(ControlGain, 1.0, 0)
	}
	assert.ErrorIs(t, c.Err(), bmerr.ErrQueueFull)
}

func TestController_SetSampleDataRejectsEmptySlice(t *testing.T) {
	c, _, _ := newTestPair(1, 4)
	ok := c.SetSampleData([]Slice{{Samples: nil, SampleRate: 48000}}, 0)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Err(), bmerr.ErrInvalidArgument)
}

// S6 — Sub-buffer split (spec §8): a NoteOn at frame 100 within a 256-frame
// buffer renders silence in [0,100) and tone from frame 100.
func TestProcessor_SubBufferSplitSampleAccurateNoteOn(t *testing.T) {
	q := queue.New()
	p := NewProcessor(q, sampleRate, 1, random.New(1), 4)
	p.applyControlChange(ControlOscShape, float64(oscillator.ShapeSine))
	p.applyControlChange(ControlAttack, 0.0)
	p.applyControlChange(ControlDecay, 0.0)
	p.applyControlChange(ControlSustain, 1.0)

	require.True(t, q.Add(100, queue.Message{Kind: queue.KindNoteOn, Pitch: 0}))

	out := make([]float32, 256)
	p.Process(out, 256, 0)

	for i := 0; i < 100; i++ {
		assert.Equal(t, float32(0), out[i], "frame %d should be silent before the NoteOn", i)
	}
	nonZero := false
	for i := 100; i < 256; i++ {
		if out[i] != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "tone should start at frame 100")
}

func TestProcessor_ControlChangeMidBufferAppliesAtItsFrame(t *testing.T) {
	q := queue.New()
	p := NewProcessor(q, sampleRate, 1, random.New(1), 4)
	p.applyControlChange(ControlOscShape, float64(oscillator.ShapeSine))
	p.applyControlChange(ControlAttack, 0.0)
	p.applyControlChange(ControlDecay, 0.0)
	p.applyControlChange(ControlSustain, 1.0)
	require.True(t, q.Add(0, queue.Message{Kind: queue.KindNoteOn, Pitch: 0}))
	require.True(t, q.Add(50, queue.Message{
		Kind: queue.KindControlChange, ControlType: uint32(ControlGain), Value: 0.0,
	}))

	out := make([]float32, 100)
	p.Process(out, 100, 0)

	loud := false
	for i := 0; i < 50; i++ {
		if out[i] != 0 {
			loud = true
		}
	}
	assert.True(t, loud, "must be audible before the gain drop")
	for i := 50; i < 100; i++ {
		assert.Equal(t, float32(0), out[i], "gain dropped to 0 at frame 50")
	}
}

func TestProcessor_NearestSliceFallsBackToHighestRoot(t *testing.T) {
	q := queue.New()
	p := NewProcessor(q, sampleRate, 1, random.New(1), 4)
	p.apply(queue.Message{
		Kind: queue.KindSampleData,
		Slices: []queue.Slice{
			{Samples: []float32{1, 2, 3}, SampleRate: 48000, RootPitch: 2.0},
			{Samples: []float32{4, 5, 6}, SampleRate: 48000, RootPitch: 5.0},
		},
	})

	// A pitch below every root picks the highest root as fallback.
	s, ok := p.nearestSlice(-10.0)
	require.True(t, ok)
	assert.Equal(t, 5.0, s.RootPitch)

	// A pitch at or above a root picks the closest one <= pitch.
	s, ok = p.nearestSlice(3.0)
	require.True(t, ok)
	assert.Equal(t, 2.0, s.RootPitch)
}

func TestProcessor_VoiceCountControlChangesPolyphony(t *testing.T) {
	q := queue.New()
	p := NewProcessor(q, sampleRate, 1, random.New(1), 8)
	p.applyControlChange(ControlVoiceCount, 2)
	for pitch := 0; pitch < 3; pitch++ {
		p.bank.NoteOn(float64(pitch), nil)
	}
	assert.Equal(t, 2, p.bank.ActiveCount())
}

func TestProcessor_FilterControlChangesApplyToParams(t *testing.T) {
	q := queue.New()
	p := NewProcessor(q, sampleRate, 1, random.New(1), 4)
	p.applyControlChange(ControlFilterType, float64(filter.TypeLowPass))
	p.applyControlChange(ControlFilterFrequency, 1000.0)
	assert.Equal(t, filter.TypeLowPass, p.params.FilterType)
	assert.Equal(t, 1000.0, p.params.FilterFrequency)
}
