// Package interpolation provides the fractional-sample interpolation the
// sampler needs for cursor playback at an arbitrary speed.
package interpolation

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}
