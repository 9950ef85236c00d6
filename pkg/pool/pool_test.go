package pool

import (
	"testing"

	"github.com/barelymusician/barelymusician/pkg/bmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Property 2 (spec §8): acquired indices are pairwise distinct until
// released; once Acquire returns Invalid, the pool is full.
func TestPool_AcquireIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(rt, "n")
		p := New[int](n)
		assert.Equal(t, n, p.Cap())

		seen := make(map[uint32]bool)
		for i := 0; i < n; i++ {
			idx := p.Acquire()
			require.NotEqual(rt, uint32(Invalid), idx, "must acquire n distinct indices before exhaustion")
			assert.False(rt, seen[idx], "acquired the same index twice: %d", idx)
			seen[idx] = true
		}

		idx := p.Acquire()
		assert.Equal(rt, uint32(Invalid), idx)
		if idx == Invalid {
			assert.True(rt, p.IsFull(), "capacity exhaustion: %s", bmerr.ErrVoicePoolFull)
		}
	})
}

func TestPool_ReleaseReturnsSlotToFreeList(t *testing.T) {
	p := New[string](2)
	a := p.Acquire()
	b := p.Acquire()
	require.NotEqual(t, uint32(Invalid), a)
	require.NotEqual(t, uint32(Invalid), b)
	assert.Equal(t, uint32(Invalid), p.Acquire())

	p.Release(a)
	c := p.Acquire()
	assert.Equal(t, a, c, "a released index should be handed back out")
}

func TestPool_GetMutatesInPlace(t *testing.T) {
	p := New[int](4)
	idx := p.Acquire()
	*p.Get(idx) = 42
	assert.Equal(t, 42, *p.Get(idx))
}

func TestPool_InvalidIsNeverAcquirable(t *testing.T) {
	p := New[int](1)
	assert.NotEqual(t, uint32(Invalid), p.Acquire())
}

func TestPool_ReleaseOfInvalidIsNoOp(t *testing.T) {
	p := New[int](1)
	p.Release(Invalid)
	assert.False(t, p.IsFull())
}
