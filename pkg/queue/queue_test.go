package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// S1 — Queue roundtrip (spec §8).
func TestQueue_Roundtrip(t *testing.T) {
	q := New()
	require.True(t, q.Add(100, Message{Kind: KindNoteOn, Pitch: 0}))
	require.True(t, q.Add(200, Message{Kind: KindNoteOff, Pitch: 0}))

	msg, frame, ok := q.GetNext(150)
	require.True(t, ok)
	assert.Equal(t, int64(100), frame)
	assert.Equal(t, KindNoteOn, msg.Kind)

	_, _, ok = q.GetNext(150)
	assert.False(t, ok)

	msg, frame, ok = q.GetNext(250)
	require.True(t, ok)
	assert.Equal(t, int64(200), frame)
	assert.Equal(t, KindNoteOff, msg.Kind)
}

func TestQueue_EmptyReturnsFalse(t *testing.T) {
	q := New()
	_, _, ok := q.GetNext(1000)
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

func TestQueue_FullRejectsAdd(t *testing.T) {
	q := New()
	added := 0
	for i := 0; i < Capacity*2; i++ {
		if q.Add(int64(i), Message{Kind: KindControlChange}) {
			added++
		}
	}
	// One slot is always sacrificed to distinguish full from empty.
	assert.Equal(t, Capacity-1, added)
	assert.False(t, q.Add(int64(Capacity*2), Message{}))
}

func TestQueue_HeadAtOrAfterEndFrameWithholds(t *testing.T) {
	q := New()
	require.True(t, q.Add(500, Message{Kind: KindNoteOn}))
	_, _, ok := q.GetNext(500)
	assert.False(t, ok, "GetNext must withhold a message whose frame is >= endFrame")
	_, _, ok = q.GetNext(501)
	assert.True(t, ok)
}

// Property 1 (spec §8): for any sequence of single-producer Adds, GetNext
// observes frames in non-decreasing order and delivers each message exactly
// once.
func TestQueue_SPSCMonotoneDelivery(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := New()
		n := rapid.IntRange(0, Capacity-2).Draw(rt, "n")
		frame := int64(0)
		frames := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			frame += int64(rapid.IntRange(0, 5).Draw(rt, "delta"))
			require.True(rt, q.Add(frame, Message{Kind: KindControlChange, Value: float64(i)}))
			frames = append(frames, frame)
		}

		var last int64 = -1
		delivered := 0
		for {
			_, f, ok := q.GetNext(frame + 1)
			if !ok {
				break
			}
			assert.GreaterOrEqual(rt, f, last)
			last = f
			delivered++
		}
		assert.Equal(rt, n, delivered)
	})
}
