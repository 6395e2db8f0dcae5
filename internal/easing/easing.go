package easing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is returned when a textual curve is not four comma-separated numbers.
var ErrParse = errors.New("easing: expected four comma-separated numbers")

// Curve is a cubic Bézier easing with fixed end points (0,0) and (1,1).
// X components of the control points live in [0,1]; Y components are
// unconstrained so the curve may overshoot.
type Curve struct {
	CP1X, CP1Y float64
	CP2X, CP2Y float64
}

// Default is the curve a new session starts with.
var Default = Curve{CP1X: 0.00, CP1Y: 0.90, CP2X: 0.30, CP2Y: 1.00}

// Panel is the fixed curve used for panel, title and label transitions.
var Panel = Curve{CP1X: 0.00, CP1Y: 0.90, CP2X: 0.30, CP2Y: 1.00}

// New builds a curve, clamping both x components to [0,1].
func New(cp1x, cp1y, cp2x, cp2y float64) Curve {
	return Curve{CP1X: clamp01(cp1x), CP1Y: cp1y, CP2X: clamp01(cp2x), CP2Y: cp2y}
}

// Evaluate returns y(t) of the Bézier polynomial for the parametric t.
// It does not solve x(t)=t; callers pass the parameter directly.
func (c Curve) Evaluate(t float64) float64 {
	cy := 3 * c.CP1Y
	by := 3*(c.CP2Y-c.CP1Y) - cy
	ay := 1 - cy - by
	return ((ay*t+by)*t + cy) * t
}

// DragPoint moves control point 1 or 2 to (x,y). X is clamped, y is not.
func (c *Curve) DragPoint(point int, x, y float64) error {
	switch point {
	case 1:
		c.CP1X, c.CP1Y = clamp01(x), y
	case 2:
		c.CP2X, c.CP2Y = clamp01(x), y
	default:
		return fmt.Errorf("easing: unknown control point %d", point)
	}
	return nil
}

// Parse reads "x1,y1,x2,y2". Whitespace is ignored.
func Parse(s string) (Curve, error) {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	parts := strings.Split(compact, ",")
	if len(parts) != 4 {
		return Curve{}, ErrParse
	}
	var nums [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Curve{}, fmt.Errorf("%w: %q", ErrParse, p)
		}
		nums[i] = v
	}
	return New(nums[0], nums[1], nums[2], nums[3]), nil
}

// Apply parses s into c. On failure c is left untouched and false is returned.
func (c *Curve) Apply(s string) bool {
	parsed, err := Parse(s)
	if err != nil {
		return false
	}
	*c = parsed
	return true
}

// String formats the curve in the same form Parse accepts.
func (c Curve) String() string {
	return fmt.Sprintf("%.2f, %.2f, %.2f, %.2f", c.CP1X, c.CP1Y, c.CP2X, c.CP2Y)
}

// MarshalText lets the curve live in YAML/TOML documents as plain text.
func (c Curve) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Curve) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
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
