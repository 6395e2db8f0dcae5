package animation

import (
	"github.com/ivlev/chart2video/internal/easing"
)

// easedRamp is the in/hold/out shape shared by the panel and the text lines:
// eased 0->1 over [in, in+d], 1 until out, eased 1->0 over [out, out+d].
func easedRamp(t, in, out, d float64, c easing.Curve) float64 {
	var p float64
	switch {
	case t < in:
		p = 0
	case t < in+d:
		p = c.Evaluate((t - in) / d)
	case t < out:
		p = 1
	case t < out+d:
		p = 1 - c.Evaluate((t-out)/d)
	default:
		p = 0
	}
	return clamp01(p)
}

// linearRamp is the per-category shape before the user curve is applied:
// linear 0->1 over [start, start+d], 1 until out, then linear down over exit.
// The result is clamped; the caller evaluates the curve on it.
func linearRamp(t, start, out, d, exit float64) float64 {
	var p float64
	switch {
	case t < start:
		p = 0
	case t < start+d:
		p = (t - start) / d
	case t < out:
		p = 1
	default:
		p = 1 - (t-out)/exit
	}
	return clamp01(p)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
