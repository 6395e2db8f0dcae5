package chart

import "math"

// TickCount is the number of value-axis ticks including zero.
const TickCount = 6

// NiceMax returns the value-axis maximum for data peaking at max: five nice
// steps (1, 2, 5 or 10 times a power of ten) covering max plus 10% headroom,
// never below 50.
func NiceMax(max float64) float64 {
	if max < 0 || math.IsNaN(max) {
		max = 0
	}
	rawStep := max * 1.1 / 5
	base := rawStep
	if base == 0 {
		base = 1
	}
	magnitude := math.Pow(10, math.Floor(math.Log10(base)))
	residual := rawStep / magnitude

	var step float64
	switch {
	case residual <= 1:
		step = magnitude
	case residual <= 2:
		step = 2 * magnitude
	case residual <= 5:
		step = 5 * magnitude
	default:
		step = 10 * magnitude
	}
	return math.Max(step*5, 50)
}

// Ticks returns TickCount evenly spaced values from 0 to axisMax.
func Ticks(axisMax float64) []float64 {
	ticks := make([]float64, TickCount)
	for i := range ticks {
		ticks[i] = axisMax * float64(i) / float64(TickCount-1)
	}
	return ticks
}

// BarPercentage compensates the bar width setting for a narrowed panel so
// bars keep their on-screen width.
func BarPercentage(barWidth, panelWidthPercent float64) float64 {
	if panelWidthPercent <= 0 {
		panelWidthPercent = DefaultPanelWidth
	}
	v := barWidth * (DefaultPanelWidth / panelWidthPercent)
	return math.Min(1, math.Max(0.1, v))
}
