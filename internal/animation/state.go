// Package animation computes the visual state of the graphic at one instant.
// Everything here is a pure function of time and parameters.
package animation

import (
	"github.com/ivlev/chart2video/internal/easing"
	"github.com/ivlev/chart2video/internal/timeline"
)

const (
	PanelDuration = 0.5
	BarDuration   = 0.5
	TitleDelay    = 0.2
	SubtitleDelay = 0.4
	LabelDelay    = 0.4

	// TextTravel is how far (pre-scale px) title and subtitle slide.
	TextTravel = 50.0
	// LabelTravel is how far value labels rise while fading in.
	LabelTravel = 20.0
)

// Params are the timing knobs of one graphic.
type Params struct {
	GraphIn  float64
	GraphOut float64
	// Curve shapes category growth. Panel and text use easing.Panel.
	Curve easing.Curve
	// Starts holds per-category start times. A short slice is reconciled
	// against Values before use.
	Starts []float64
	Values []float64
}

// Frame is the computed state for one instant. It is never retained.
type Frame struct {
	Time float64

	Panel float64
	// ClipTop is the fraction of the panel height hidden from the top edge.
	ClipTop float64

	Title          float64
	Subtitle       float64
	TitleOffset    float64
	SubtitleOffset float64

	// Progress is the eased per-category progress, not re-clamped.
	Progress []float64
	Values   []float64

	LabelOpacity []float64
	LabelOffset  []float64
}

// Compute evaluates the animation at t seconds.
func Compute(t float64, p Params) Frame {
	f := Frame{Time: t}

	f.Panel = easedRamp(t, p.GraphIn, p.GraphOut, PanelDuration, easing.Panel)
	f.ClipTop = 1 - f.Panel

	// text exits together with the panel; only the entry is delayed
	f.Title = easedRamp(t, p.GraphIn+TitleDelay, p.GraphOut, PanelDuration, easing.Panel)
	f.Subtitle = easedRamp(t, p.GraphIn+SubtitleDelay, p.GraphOut, PanelDuration, easing.Panel)
	f.TitleOffset = lerp(TextTravel, 0, f.Title)
	f.SubtitleOffset = lerp(TextTravel, 0, f.Subtitle)

	n := len(p.Values)
	starts := p.Starts
	if len(starts) != n {
		starts = timeline.Restore(starts, n, p.GraphIn).Starts()
	}

	f.Progress = make([]float64, n)
	f.Values = make([]float64, n)
	f.LabelOpacity = make([]float64, n)
	f.LabelOffset = make([]float64, n)
	for i, v := range p.Values {
		lin := linearRamp(t, starts[i], p.GraphOut, BarDuration, PanelDuration)
		f.Progress[i] = p.Curve.Evaluate(lin)
		f.Values[i] = v * f.Progress[i]

		lp := easing.Panel.Evaluate(linearRamp(t, starts[i]+LabelDelay, p.GraphOut, BarDuration, PanelDuration))
		f.LabelOpacity[i] = clamp01(lp)
		f.LabelOffset[i] = lerp(LabelTravel, 0, f.LabelOpacity[i])
	}
	return f
}

// PanelProgress is the panel reveal fraction at t.
func PanelProgress(t, graphIn, graphOut float64) float64 {
	return easedRamp(t, graphIn, graphOut, PanelDuration, easing.Panel)
}

// Visible reports whether anything of the graphic is on screen.
func (f Frame) Visible() bool {
	return f.Panel > 0 || f.Title > 0 || f.Subtitle > 0
}
