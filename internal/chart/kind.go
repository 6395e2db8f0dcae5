package chart

import "fmt"

// Kind is the closed set of chart kinds. Only Bar and Line implement it.
type Kind interface {
	Name() string
	isKind()
}

// Bar draws one rounded bar per category.
type Bar struct {
	Horizontal bool
	// Width is the bar share of its category slot before panel compensation, 0..1.
	Width        float64
	CornerRadius float64
}

// Line draws a smoothed polyline through the category values.
type Line struct {
	StrokeWidth float64
	Tension     float64
	PointRadius float64
}

func (b Bar) Name() string {
	if b.Horizontal {
		return "bar-horizontal"
	}
	return "bar-vertical"
}

func (Line) Name() string { return "line" }

func (Bar) isKind()  {}
func (Line) isKind() {}

// DefaultBar and DefaultLine hold the stock geometry in 1920x1080 units.
var (
	DefaultBar  = Bar{Width: 0.35, CornerRadius: 12}
	DefaultLine = Line{StrokeWidth: 3, Tension: 0.4, PointRadius: 6}
)

// KindByName maps the textual kind used in projects and flags.
func KindByName(name string) (Kind, error) {
	switch name {
	case "", "bar", "bar-vertical":
		return DefaultBar, nil
	case "bar-horizontal":
		b := DefaultBar
		b.Horizontal = true
		return b, nil
	case "line":
		return DefaultLine, nil
	}
	return nil, fmt.Errorf("unknown chart kind %q", name)
}
