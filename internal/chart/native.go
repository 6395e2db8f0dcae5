package chart

import (
	"fmt"
	"image"
	"math"
)

// Layout constants in 1920x1080 units.
const (
	padLeft     = 20
	padRight    = 40
	padTop      = 20
	padBottom   = 10
	tickSize    = 30
	tickPadding = 15
	// logoStrip is the room kept under the plot when logos replace labels.
	logoStrip          = 225
	categoryPercentage = 0.9
)

// Native is the built-in Renderer, drawing with x/image/vector.
type Native struct {
	fonts *Fonts

	kind    Kind
	series  Series
	style   Style
	axisMax float64
	format  Formatter

	layout    image.Rectangle
	positions []image.Point
	rendered  bool
}

// NewNative returns a renderer drawing text with fonts.
func NewNative(fonts *Fonts) *Native {
	style := DefaultStyle()
	return &Native{
		fonts:   fonts,
		kind:    DefaultBar,
		style:   style,
		axisMax: NiceMax(0),
		format:  NewFormatter(style.Locale, style.TickSuffix),
	}
}

func (r *Native) Configure(kind Kind, series Series, style Style) error {
	if kind == nil {
		return fmt.Errorf("chart kind is required")
	}
	if err := series.Validate(); err != nil {
		return err
	}
	style.Normalize()
	r.kind = kind
	r.series = series
	r.style = style
	r.axisMax = NiceMax(series.Max())
	r.format = NewFormatter(style.Locale, style.TickSuffix)
	r.rendered = false
	return nil
}

// AxisMax is the value-axis maximum derived at Configure.
func (r *Native) AxisMax() float64 { return r.axisMax }

func (r *Native) Render(dst *image.RGBA, values []float64, scale float64) error {
	if len(values) != r.series.Len() {
		return fmt.Errorf("render: %d values for %d categories", len(values), r.series.Len())
	}
	if scale <= 0 {
		scale = 1
	}
	r.positions = make([]image.Point, len(values))

	switch k := r.kind.(type) {
	case Bar:
		if k.Horizontal {
			r.renderHorizontal(dst, values, scale, k)
		} else {
			r.renderColumns(dst, values, scale, k)
		}
	case Line:
		r.renderLine(dst, values, scale, k)
	default:
		return fmt.Errorf("render: unsupported chart kind %T", r.kind)
	}
	r.rendered = true
	return nil
}

func (r *Native) CategoryPosition(index int) (image.Point, error) {
	if !r.rendered {
		return image.Point{}, ErrNotRendered
	}
	if index < 0 || index >= len(r.positions) {
		return image.Point{}, fmt.Errorf("category %d out of range [0,%d)", index, len(r.positions))
	}
	return r.positions[index], nil
}

func (r *Native) LayoutArea() image.Rectangle { return r.layout }

// plotArea lays out a chart whose categories run along x.
func (r *Native) plotArea(dst *image.RGBA, scale float64) image.Rectangle {
	b := dst.Bounds()
	face := r.fonts.Face(false, tickSize*scale)
	labelW := 0
	for _, t := range Ticks(r.axisMax) {
		labelW = max(labelW, TextWidth(face, r.format.Format(t)))
	}
	tp := int(tickPadding * scale)
	lh := LineHeight(face)

	bottom := lh + tp
	if r.style.AxisMode == AxisLogos {
		bottom = int(logoStrip * scale)
	}
	return image.Rect(
		b.Min.X+int(padLeft*scale)+labelW+tp,
		b.Min.Y+int(padTop*scale)+lh/2,
		b.Max.X-int(padRight*scale),
		b.Max.Y-int(padBottom*scale)-bottom,
	)
}

// drawValueGrid paints horizontal grid lines with tick labels on the left.
func (r *Native) drawValueGrid(dst *image.RGBA, area image.Rectangle, scale float64) {
	face := r.fonts.Face(false, tickSize*scale)
	tp := int(tickPadding * scale)
	for _, t := range Ticks(r.axisMax) {
		y := area.Max.Y - int(math.Round(t/r.axisMax*float64(area.Dy())))
		HLine(dst, area.Min.X, area.Max.X, y, r.style.Grid)
		DrawTextRight(dst, face, r.format.Format(t), area.Min.X-tp, y+Ascent(face)/3, r.style.Text)
	}
}

func (r *Native) drawCategoryLabels(dst *image.RGBA, area image.Rectangle, xs []float64, scale float64) {
	if r.style.AxisMode == AxisLogos {
		return
	}
	face := r.fonts.Face(false, tickSize*scale)
	y := area.Max.Y + int(tickPadding*scale) + Ascent(face)
	for i, l := range r.series.Labels {
		DrawTextCentered(dst, face, l, int(xs[i]), y, r.style.Text)
	}
}

func slotCenters(lo, length float64, n int) []float64 {
	cs := make([]float64, n)
	slot := length / float64(n)
	for i := range cs {
		cs[i] = lo + slot*(float64(i)+0.5)
	}
	return cs
}

func (r *Native) renderColumns(dst *image.RGBA, values []float64, scale float64, k Bar) {
	area := r.plotArea(dst, scale)
	r.layout = area
	if area.Dx() <= 0 || area.Dy() <= 0 || len(values) == 0 {
		return
	}
	r.drawValueGrid(dst, area, scale)

	n := len(values)
	xs := slotCenters(float64(area.Min.X), float64(area.Dx()), n)
	bw := float64(area.Dx()) / float64(n) * categoryPercentage * BarPercentage(k.Width, r.style.PanelWidth)
	rad := k.CornerRadius * scale
	base := float64(area.Max.Y)

	for i, v := range values {
		h := v / r.axisMax * float64(area.Dy())
		top := base - h
		switch {
		case h > 0:
			FillPolygon(dst, RoundedRect(xs[i]-bw/2, top, xs[i]+bw/2, base, Radii{TL: rad, TR: rad}), r.style.BarColor(i))
		case h < 0:
			FillPolygon(dst, RoundedRect(xs[i]-bw/2, base, xs[i]+bw/2, top, Radii{BL: rad, BR: rad}), r.style.BarColor(i))
		}
		r.positions[i] = image.Pt(int(math.Round(xs[i])), int(math.Round(top)))
	}
	r.drawCategoryLabels(dst, area, xs, scale)
}

func (r *Native) renderHorizontal(dst *image.RGBA, values []float64, scale float64, k Bar) {
	b := dst.Bounds()
	face := r.fonts.Face(false, tickSize*scale)
	tp := int(tickPadding * scale)

	catW := 0
	if r.style.AxisMode == AxisLogos {
		catW = int(80*scale) + int(10*scale)
	} else {
		for _, l := range r.series.Labels {
			catW = max(catW, TextWidth(face, l))
		}
	}
	ticks := Ticks(r.axisMax)
	lastW := TextWidth(face, r.format.Format(ticks[len(ticks)-1]))

	area := image.Rect(
		b.Min.X+int(padLeft*scale)+catW+tp,
		b.Min.Y+int(padTop*scale),
		b.Max.X-int(padRight*scale)-lastW/2,
		b.Max.Y-int(padBottom*scale)-LineHeight(face)-tp,
	)
	r.layout = area
	if area.Dx() <= 0 || area.Dy() <= 0 || len(values) == 0 {
		return
	}

	for _, t := range ticks {
		x := area.Min.X + int(math.Round(t/r.axisMax*float64(area.Dx())))
		VLine(dst, x, area.Min.Y, area.Max.Y, r.style.Grid)
		DrawTextCentered(dst, face, r.format.Format(t), x, area.Max.Y+tp+Ascent(face), r.style.Text)
	}

	n := len(values)
	ys := slotCenters(float64(area.Min.Y), float64(area.Dy()), n)
	bh := float64(area.Dy()) / float64(n) * categoryPercentage * BarPercentage(k.Width, r.style.PanelWidth)
	rad := k.CornerRadius * scale
	base := float64(area.Min.X)

	for i, v := range values {
		w := v / r.axisMax * float64(area.Dx())
		end := base + w
		switch {
		case w > 0:
			FillPolygon(dst, RoundedRect(base, ys[i]-bh/2, end, ys[i]+bh/2, Radii{TR: rad, BR: rad}), r.style.BarColor(i))
		case w < 0:
			FillPolygon(dst, RoundedRect(end, ys[i]-bh/2, base, ys[i]+bh/2, Radii{TL: rad, BL: rad}), r.style.BarColor(i))
		}
		r.positions[i] = image.Pt(int(math.Round(end)), int(math.Round(ys[i])))
		if r.style.AxisMode != AxisLogos {
			DrawTextRight(dst, face, r.series.Labels[i], area.Min.X-tp, int(ys[i])+Ascent(face)/3, r.style.Text)
		}
	}
}

func (r *Native) renderLine(dst *image.RGBA, values []float64, scale float64, k Line) {
	area := r.plotArea(dst, scale)
	r.layout = area
	if area.Dx() <= 0 || area.Dy() <= 0 || len(values) == 0 {
		return
	}
	r.drawValueGrid(dst, area, scale)

	xs := slotCenters(float64(area.Min.X), float64(area.Dx()), len(values))
	pts := make([]Pt, len(values))
	for i, v := range values {
		pts[i] = Pt{xs[i], float64(area.Max.Y) - v/r.axisMax*float64(area.Dy())}
		r.positions[i] = image.Pt(int(math.Round(pts[i].X)), int(math.Round(pts[i].Y)))
	}

	StrokePolyline(dst, Smooth(pts, k.Tension, 12), k.StrokeWidth*scale, r.style.Primary)
	for i, p := range pts {
		FillPolygon(dst, Circle(p.X, p.Y, k.PointRadius*scale), r.style.BarColor(i))
	}
	r.drawCategoryLabels(dst, area, xs, scale)
}

// Smooth replaces straight segments with cubic curves whose control points
// follow the neighbouring points, scaled by tension. Each segment is
// flattened into steps pieces.
func Smooth(pts []Pt, tension float64, steps int) []Pt {
	if tension <= 0 || len(pts) < 3 || steps < 1 {
		return pts
	}
	n := len(pts)
	prevCP := make([]Pt, n)
	nextCP := make([]Pt, n)
	for i := range pts {
		prev, cur, next := pts[max(i-1, 0)], pts[i], pts[min(i+1, n-1)]
		d01 := math.Hypot(cur.X-prev.X, cur.Y-prev.Y)
		d12 := math.Hypot(next.X-cur.X, next.Y-cur.Y)
		s01, s12 := 0.0, 0.0
		if d01+d12 > 0 {
			s01 = d01 / (d01 + d12)
			s12 = d12 / (d01 + d12)
		}
		fa, fb := tension*s01, tension*s12
		prevCP[i] = Pt{cur.X - fa*(next.X-prev.X), cur.Y - fa*(next.Y-prev.Y)}
		nextCP[i] = Pt{cur.X + fb*(next.X-prev.X), cur.Y + fb*(next.Y-prev.Y)}
	}

	out := []Pt{pts[0]}
	for i := 0; i+1 < n; i++ {
		p0, c1, c2, p3 := pts[i], nextCP[i], prevCP[i+1], pts[i+1]
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps)
			u := 1 - t
			out = append(out, Pt{
				X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p3.X,
				Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p3.Y,
			})
		}
	}
	return out
}
