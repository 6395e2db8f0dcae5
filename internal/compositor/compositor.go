// Package compositor assembles one output frame: background, frosted glass
// panel, chart and text overlays.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"github.com/ivlev/chart2video/internal/animation"
	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/media"
)

var glassTint = color.RGBA{0x80, 0x80, 0x80, 0x80} // white at 50%, premultiplied

// Logos resolves a category label to its logo, or nil.
type Logos interface {
	Get(label string) image.Image
}

// Content is everything static about the graphic.
type Content struct {
	Title    string
	Subtitle string
	// Source is printed as "bron: <source>".
	Source string
	// SourceURL, when set, adds a QR badge in the panel corner.
	SourceURL string

	Kind   chart.Kind
	Series chart.Series
	Style  chart.Style
}

// Compositor draws frames of a fixed size. It is not safe for concurrent use.
type Compositor struct {
	size     image.Point
	renderer chart.Renderer
	fonts    *chart.Fonts
	logos    Logos

	content Content
	layout  Layout
	format  chart.Formatter
	qr      image.Image

	// bgCache holds the blurred panel area of a still background.
	bgCache struct {
		src  *image.RGBA
		blur *image.RGBA
	}

	warnings  atomic.Int64
	OnWarning func(error)
}

// New returns a compositor producing size frames with the given renderer.
// logos may be nil.
func New(size image.Point, renderer chart.Renderer, logos Logos) (*Compositor, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid frame size %v", size)
	}
	fonts, err := chart.LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	c := &Compositor{size: size, renderer: renderer, fonts: fonts, logos: logos}
	if err := c.SetContent(Content{Kind: chart.DefaultBar, Style: chart.DefaultStyle()}); err != nil {
		return nil, err
	}
	return c, nil
}

// Size of the produced frames.
func (c *Compositor) Size() image.Point { return c.size }

// Layout of the current content.
func (c *Compositor) Layout() Layout { return c.layout }

// SetContent reconfigures the renderer and recomputes the layout.
func (c *Compositor) SetContent(ct Content) error {
	ct.Style.Normalize()
	if ct.Kind == nil {
		ct.Kind = chart.DefaultBar
	}
	if err := c.renderer.Configure(ct.Kind, ct.Series, ct.Style); err != nil {
		return err
	}
	c.content = ct
	c.layout = NewLayout(c.size, ct.Style, c.fonts, ct.Source != "")
	c.format = chart.NewFormatter(ct.Style.Locale, ct.Style.TickSuffix)
	c.qr = nil
	if ct.SourceURL != "" {
		qr, err := qrBadge(ct.SourceURL, int(qrSize*c.layout.Scale))
		if err != nil {
			return fmt.Errorf("qr badge: %w", err)
		}
		c.qr = qr
	}
	return nil
}

// Warnings is the number of frames that fell back to a degraded raster.
func (c *Compositor) Warnings() int64 { return c.warnings.Load() }

func (c *Compositor) warn(err error) {
	c.warnings.Add(1)
	if c.OnWarning != nil {
		c.OnWarning(err)
	}
}

// Compose draws the frame for f over bg into a new image. With alpha set
// the background is never requested and only the tinted panel and its
// content are painted on transparency. A failing step never aborts: the
// frame degrades to black plus whatever chart could be drawn, and the
// failure is counted.
func (c *Compositor) Compose(bg media.Source, f animation.Frame, alpha bool) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: c.size})
	if err := c.ComposeInto(dst, bg, f, alpha); err != nil {
		c.warn(err)
		return c.fallback(f)
	}
	return dst
}

// ComposeInto is Compose without the fallback: dst must have the frame size.
func (c *Compositor) ComposeInto(dst *image.RGBA, bg media.Source, f animation.Frame, alpha bool) error {
	if dst.Rect.Size() != c.size {
		return fmt.Errorf("destination is %v, want %v", dst.Rect.Size(), c.size)
	}

	var back *image.RGBA
	if !alpha {
		if bg == nil {
			return errors.New("no background source")
		}
		var err error
		if back, err = bg.Frame(c.size); err != nil {
			return fmt.Errorf("background: %w", err)
		}
		draw.Draw(dst, dst.Rect, back, back.Rect.Min, draw.Src)
	}

	x0, y0, x1, y1 := c.layout.Clipped(f.ClipTop)
	if y1-y0 < 1 || f.Panel <= 0 {
		return nil
	}
	mask := chart.Mask(chart.RoundedRect(x0, y0, x1, y1, chart.Uniform(c.layout.Radius)))
	if mask == nil {
		return nil
	}

	if back != nil {
		blur := c.blurred(back)
		draw.DrawMask(dst, mask.Rect, blur, mask.Rect.Min, mask, mask.Rect.Min, draw.Over)
	}
	draw.DrawMask(dst, mask.Rect, image.NewUniform(glassTint), image.Point{}, mask, mask.Rect.Min, draw.Over)

	panel, err := c.drawPanel(f)
	if err != nil {
		return err
	}
	draw.DrawMask(dst, mask.Rect, panel, mask.Rect.Min, mask, mask.Rect.Min, draw.Over)
	return nil
}

// blurred returns the blurred panel area of back, reusing it while the
// background picture is unchanged.
func (c *Compositor) blurred(back *image.RGBA) *image.RGBA {
	if c.bgCache.src == back && c.bgCache.blur != nil {
		return c.bgCache.blur
	}
	r := int(blurRadius * c.layout.Scale / boxPasses)
	b := Blur(back, c.layout.Panel, max(1, r))
	c.bgCache.src, c.bgCache.blur = back, b
	return b
}

// drawPanel paints title, chart and overlays on a transparent layer
// positioned at the panel rectangle.
func (c *Compositor) drawPanel(f animation.Frame) (*image.RGBA, error) {
	l := c.layout
	layer := image.NewRGBA(l.Panel)
	at := func(p image.Point) image.Point { return p.Add(l.Panel.Min) }
	s := l.Scale
	ct := c.content
	text := ct.Style.Text

	if ct.Title != "" {
		p := at(l.Title)
		chart.DrawText(layer, c.fonts.Face(true, titleSize*s), ct.Title, p.X, p.Y+int(f.TitleOffset*s), text)
	}
	if ct.Subtitle != "" {
		p := at(l.Subtitle)
		chart.DrawText(layer, c.fonts.Face(false, subtitleSize*s), ct.Subtitle, p.X, p.Y+int(f.SubtitleOffset*s), text)
	}
	if ct.Source != "" {
		p := at(l.Source)
		chart.DrawText(layer, c.fonts.Face(false, sourceSize*s), "bron: "+ct.Source, p.X, p.Y, text)
	}
	if c.qr != nil {
		qb := c.qr.Bounds()
		pt := image.Pt(l.Panel.Max.X-int(padH*s)-qb.Dx(), l.Panel.Max.Y-int(padV*s)-qb.Dy())
		draw.Draw(layer, qb.Sub(qb.Min).Add(pt), c.qr, qb.Min, draw.Over)
	}

	area := l.Chart.Add(l.Panel.Min)
	if area.Empty() || ct.Series.Len() == 0 {
		return layer, nil
	}
	values := f.Values
	if len(values) != ct.Series.Len() {
		values = make([]float64, ct.Series.Len())
	}
	sub := layer.SubImage(area).(*image.RGBA)
	if err := c.renderer.Render(sub, values, s); err != nil {
		return layer, fmt.Errorf("render chart: %w", err)
	}

	if ct.Style.AxisMode == chart.AxisLogos {
		c.drawLogos(layer)
	}
	if ct.Style.ValueLabels {
		c.drawValueLabels(layer, f)
	}
	return layer, nil
}

// fallback is a black frame with whatever the renderer can still draw.
func (c *Compositor) fallback(f animation.Frame) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: c.size})
	draw.Draw(dst, dst.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	if len(f.Values) == c.content.Series.Len() && len(f.Values) > 0 {
		area := c.layout.Chart.Add(c.layout.Panel.Min)
		if !area.Empty() {
			// best effort: ignore a second failure
			_ = c.renderer.Render(dst.SubImage(area).(*image.RGBA), f.Values, c.layout.Scale)
		}
	}
	return dst
}
