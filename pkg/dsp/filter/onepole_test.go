package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Property 4 (spec §8): GetFilterCoefficient(sr, fc) is in [0,1]; equals 0
// when fc >= sr.
func TestGetFilterCoefficient_RangeAndBoundary(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sr := rapid.IntRange(1000, 192000).Draw(rt, "sr")
		fc := rapid.Float64Range(0, 400000).Draw(rt, "fc")
		c := GetFilterCoefficient(sr, fc)
		assert.GreaterOrEqual(rt, c, 0.0)
		assert.LessOrEqual(rt, c, 1.0)
		if fc >= float64(sr) {
			assert.Equal(rt, 0.0, c)
		}
	})
}

// Documents the Open Question §9(i) resolution: the coefficient formula is
// preserved verbatim (exp(-2*pi*fc/fs)) at a handful of concrete fc/fs
// pairs.
func TestGetFilterCoefficient_DocumentedValues(t *testing.T) {
	cases := []struct {
		sr       int
		fc       float64
		expected float64
	}{
		{48000, 1000, 0.8773057691},
		{48000, 20000, 0.0729490608}, // near Nyquist
		{44100, 440, 0.9392351762},
		{48000, 24000, 0.0432139183}, // at Nyquist
		{48000, 48000, 0.0},          // fc == fs boundary
	}
	for _, c := range cases {
		got := GetFilterCoefficient(c.sr, c.fc)
		assert.InDelta(t, c.expected, got, 1e-4, "sr=%d fc=%f", c.sr, c.fc)
	}
}

func TestOnePole_NoneIsPassthrough(t *testing.T) {
	var f OnePole
	assert.Equal(t, 5.0, f.Next(5.0, 0.5, TypeNone))
}

func TestOnePole_LowPassSmoothsStep(t *testing.T) {
	var f OnePole
	coeff := GetFilterCoefficient(48000, 1000)
	var last float64
	for i := 0; i < 100; i++ {
		last = f.Next(1.0, coeff, TypeLowPass)
	}
	assert.InDelta(t, 1.0, last, 0.05)
}

func TestOnePole_HighPassPlusLowPassReconstructsInput(t *testing.T) {
	var lp, hp OnePole
	coeff := GetFilterCoefficient(48000, 1000)
	for i := 0; i < 10; i++ {
		input := float64(i) * 0.1
		l := lp.Next(input, coeff, TypeLowPass)
		h := hp.Next(input, coeff, TypeHighPass)
		assert.InDelta(t, input, l+h, 1e-9)
	}
}

func TestOnePole_Reset(t *testing.T) {
	var f OnePole
	f.Next(1.0, 0.9, TypeLowPass)
	f.Reset()
	assert.Equal(t, 0.0, f.output)
}

func TestOnePole_ProcessFiltersInPlace(t *testing.T) {
	var f OnePole
	buf := []float32{1, 1, 1, 1, 1}
	f.Process(buf, GetFilterCoefficient(48000, 1000), TypeLowPass)
	for i := 1; i < len(buf); i++ {
		assert.GreaterOrEqual(t, buf[i], buf[i-1])
	}
}
