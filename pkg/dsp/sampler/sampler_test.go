package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return data
}

func TestPlayer_SameRateAdvancesOneFramePerSample(t *testing.T) {
	p := NewPlayer(ramp(4), 48000, 48000)
	assert.Equal(t, float32(0), p.Next())
	assert.Equal(t, float32(1), p.Next())
	assert.Equal(t, float32(2), p.Next())
}

func TestPlayer_ExhaustedNonLoopingReturnsZero(t *testing.T) {
	p := NewPlayer(ramp(2), 48000, 48000)
	p.Next()
	p.Next()
	assert.True(t, p.IsExhausted())
	assert.Equal(t, float32(0), p.Next())
}

func TestPlayer_LoopingWrapsViaModulo(t *testing.T) {
	p := NewPlayer(ramp(2), 48000, 48000)
	p.SetLoop(true)
	first := p.Next()
	second := p.Next()
	third := p.Next()
	assert.Equal(t, float32(0), first)
	assert.Equal(t, float32(1), second)
	assert.Equal(t, float32(0), third)
	assert.False(t, p.IsExhausted())
}

func TestPlayer_SpeedScalesCursorAdvance(t *testing.T) {
	p := NewPlayer(ramp(10), 48000, 48000)
	p.SetSpeed(2.0)
	assert.Equal(t, float32(0), p.Next())
	assert.Equal(t, float32(2), p.Next())
	assert.Equal(t, float32(4), p.Next())
}

func TestPlayer_DownsampledRateInterpolates(t *testing.T) {
	// Source at 1.5x the destination rate: ratio 1.5, so the second dst
	// sample lands at cursor 1.5, halfway between source frames 1 and 2.
	p := NewPlayer(ramp(10), 48000, 32000)
	v := p.Next()
	assert.Equal(t, float32(0), v)
	v2 := p.Next()
	assert.InDelta(t, 1.5, v2, 1e-6)
}

func TestPlayer_SetDataResetsRatioNotCursor(t *testing.T) {
	p := NewPlayer(ramp(4), 48000, 48000)
	p.Next()
	p.SetData(ramp(8), 96000)
	// ratio recomputed to 2.0; cursor position preserved (spec only
	// requires the buffer pointer/length swap, not a rewind).
	v := p.Next()
	require.Equal(t, float32(1), v, "cursor stays at 1 after SetData")
	assert.Equal(t, float32(3), p.Next(), "ratio 2.0 advances the cursor from 1 to 3")
}

func TestPlayer_ResetRewindsCursor(t *testing.T) {
	p := NewPlayer(ramp(4), 48000, 48000)
	p.Next()
	p.Next()
	p.Reset()
	assert.Equal(t, float32(0), p.Next())
}

func TestPlayer_EmptyDataIsSilent(t *testing.T) {
	p := NewPlayer(nil, 48000, 48000)
	assert.Equal(t, float32(0), p.Next())
}

func TestPlayer_NegativeSpeedClampsToZero(t *testing.T) {
	p := NewPlayer(ramp(4), 48000, 48000)
	p.SetSpeed(-1.0)
	assert.Equal(t, float32(0), p.Next())
	assert.Equal(t, float32(0), p.Next())
}
