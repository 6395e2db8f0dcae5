package compositor

import (
	"image"
	"math"

	"github.com/ivlev/chart2video/internal/chart"
)

// Geometry in 1920x1080 units.
const (
	RefWidth  = 1920
	RefHeight = 1080

	panelMargin  = 60
	cornerRadius = 12
	blurRadius   = 20

	padV = 30
	padH = 50

	titleSize    = 70
	subtitleSize = 50
	sourceSize   = 24
	labelSize    = 28
	textGap      = 10
	chartGap     = 20

	logoSize = 80
	qrSize   = 96
)

// Layout is the pixel geometry of one output frame.
type Layout struct {
	Size  image.Point
	Scale float64
	// Panel is the full panel rectangle before the reveal clip.
	Panel image.Rectangle
	// Rects below are relative to Panel.Min.
	Title    image.Point
	Subtitle image.Point
	Source   image.Point
	Chart    image.Rectangle
	Radius   float64
}

// ScaleFor is the ratio of size to the reference frame. Non-16:9 frames
// use the tighter axis.
func ScaleFor(size image.Point) float64 {
	return math.Min(float64(size.X)/RefWidth, float64(size.Y)/RefHeight)
}

// NewLayout places the panel and its content for a frame of size.
func NewLayout(size image.Point, style chart.Style, fonts *chart.Fonts, hasSource bool) Layout {
	s := ScaleFor(size)
	px := func(v float64) int { return int(math.Round(v * s)) }

	w := int(math.Round(float64(size.X) * style.PanelWidth / 100))
	margin := px(panelMargin)
	var x0 int
	switch style.Anchor {
	case chart.AnchorLeft:
		x0 = margin
	case chart.AnchorRight:
		x0 = size.X - margin - w
	default:
		x0 = (size.X - w) / 2
	}
	x0 = max(0, x0)
	panel := image.Rect(x0, margin, min(size.X, x0+w), size.Y-margin)

	l := Layout{Size: size, Scale: s, Panel: panel, Radius: cornerRadius * s}

	titleFace := fonts.Face(true, titleSize*s)
	subFace := fonts.Face(false, subtitleSize*s)
	srcFace := fonts.Face(false, sourceSize*s)

	y := px(padV) + chart.Ascent(titleFace)
	l.Title = image.Pt(px(padH), y)
	y += chart.LineHeight(titleFace) - chart.Ascent(titleFace) + px(textGap) + chart.Ascent(subFace)
	l.Subtitle = image.Pt(px(padH), y)
	top := y + chart.LineHeight(subFace) - chart.Ascent(subFace) + px(chartGap)

	bottom := panel.Dy() - px(padV)
	l.Source = image.Pt(px(padH), bottom)
	if hasSource {
		bottom -= chart.LineHeight(srcFace) + px(textGap)
	}
	l.Chart = image.Rect(px(padH), top, panel.Dx()-px(padH), max(top, bottom))
	return l
}

// Clipped is the visible part of the panel for a reveal clip of clipTop
// (fraction hidden from the top edge).
func (l Layout) Clipped(clipTop float64) (x0, y0, x1, y1 float64) {
	clipTop = math.Max(0, math.Min(1, clipTop))
	h := float64(l.Panel.Dy())
	return float64(l.Panel.Min.X), float64(l.Panel.Min.Y) + clipTop*h,
		float64(l.Panel.Max.X), float64(l.Panel.Max.Y)
}
