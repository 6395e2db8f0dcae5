package chart

import (
	"errors"
	"image"
)

var ErrNotRendered = errors.New("chart has not been rendered yet")

// Renderer draws one chart at animated values and reports the resulting
// layout so overlays can be placed on top of it.
type Renderer interface {
	// Configure selects kind, data and style. The value axis is derived from
	// the raw series so it stays put while values animate.
	Configure(kind Kind, series Series, style Style) error
	// Render draws into dst.Bounds() at the given animated values. scale is
	// the ratio of the output frame to 1920x1080.
	Render(dst *image.RGBA, values []float64, scale float64) error
	// CategoryPosition is the anchor of category i after the last Render:
	// the top centre of a vertical bar, the end of a horizontal bar or the
	// point of a line.
	CategoryPosition(index int) (image.Point, error)
	// LayoutArea is the plotting rectangle of the last Render.
	LayoutArea() image.Rectangle
}

// LogoSlot is where the logo of a category goes, given the anchor reported
// by the renderer. Logos sit below the plot, or left of it for horizontal bars.
func LogoSlot(kind Kind, layout image.Rectangle, anchor image.Point, size int, scale float64) image.Rectangle {
	gap := int(10 * scale)
	if b, ok := kind.(Bar); ok && b.Horizontal {
		x1 := layout.Min.X - gap
		return image.Rect(x1-size, anchor.Y-size/2, x1, anchor.Y-size/2+size)
	}
	y0 := layout.Max.Y + gap
	return image.Rect(anchor.X-size/2, y0, anchor.X-size/2+size, y0+size)
}
