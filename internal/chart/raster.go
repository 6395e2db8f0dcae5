package chart

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Pt is a point in floating pixel coordinates.
type Pt struct{ X, Y float64 }

// Mask rasterises a closed polygon into an alpha mask covering its bounding
// box. The returned mask keeps absolute coordinates in its Rect.
func Mask(pts []Pt) *image.Alpha {
	if len(pts) < 3 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	if r.Empty() {
		return nil
	}

	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()

	local := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(local, local.Bounds(), image.Opaque, image.Point{})
	local.Rect = r
	return local
}

// FillPolygon paints pts with c over dst.
func FillPolygon(dst draw.Image, pts []Pt, c color.Color) {
	m := Mask(pts)
	if m == nil {
		return
	}
	draw.DrawMask(dst, m.Rect, image.NewUniform(c), image.Point{}, m, m.Rect.Min, draw.Over)
}

// Radii are the corner radii of a rectangle, clockwise from top-left.
type Radii struct{ TL, TR, BR, BL float64 }

// Uniform returns the same radius on every corner.
func Uniform(r float64) Radii { return Radii{r, r, r, r} }

const arcSteps = 8

// RoundedRect outlines the rectangle (x0,y0)-(x1,y1) with rounded corners.
// Radii are limited to half the shorter side.
func RoundedRect(x0, y0, x1, y1 float64, r Radii) []Pt {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	lim := math.Min(x1-x0, y1-y0) / 2
	fit := func(v float64) float64 { return math.Max(0, math.Min(v, lim)) }

	var pts []Pt
	corner := func(cx, cy, rad, from float64) {
		for i := 0; i <= arcSteps; i++ {
			a := from + float64(i)/arcSteps*math.Pi/2
			pts = append(pts, Pt{cx + math.Cos(a)*rad, cy + math.Sin(a)*rad})
		}
	}

	tl, tr, br, bl := fit(r.TL), fit(r.TR), fit(r.BR), fit(r.BL)
	if tl > 0 {
		corner(x0+tl, y0+tl, tl, math.Pi)
	} else {
		pts = append(pts, Pt{x0, y0})
	}
	if tr > 0 {
		corner(x1-tr, y0+tr, tr, 3*math.Pi/2)
	} else {
		pts = append(pts, Pt{x1, y0})
	}
	if br > 0 {
		corner(x1-br, y1-br, br, 0)
	} else {
		pts = append(pts, Pt{x1, y1})
	}
	if bl > 0 {
		corner(x0+bl, y1-bl, bl, math.Pi/2)
	} else {
		pts = append(pts, Pt{x0, y1})
	}
	return pts
}

// Circle outlines a disc.
func Circle(cx, cy, r float64) []Pt {
	const steps = 24
	pts := make([]Pt, steps)
	for i := range pts {
		a := float64(i) / steps * 2 * math.Pi
		pts[i] = Pt{cx + math.Cos(a)*r, cy + math.Sin(a)*r}
	}
	return pts
}

// StrokePolyline paints a polyline of the given width with round joins.
// Segments and joins are filled one shape at a time so overlaps do not cancel.
func StrokePolyline(dst draw.Image, pts []Pt, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	hw := width / 2
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		FillPolygon(dst, []Pt{{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny}, {b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny}}, c)
	}
	for _, p := range pts[1 : len(pts)-1] {
		FillPolygon(dst, Circle(p.X, p.Y, hw), c)
	}
}

// HLine paints a one pixel horizontal rule.
func HLine(dst draw.Image, x0, x1, y int, c color.Color) {
	draw.Draw(dst, image.Rect(x0, y, x1, y+1), image.NewUniform(c), image.Point{}, draw.Over)
}

// VLine paints a one pixel vertical rule.
func VLine(dst draw.Image, x, y0, y1 int, c color.Color) {
	draw.Draw(dst, image.Rect(x, y0, x+1, y1), image.NewUniform(c), image.Point{}, draw.Over)
}
