package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/chart2video/internal/animation"
	"github.com/ivlev/chart2video/internal/chart"
)

// drawLogos puts each category's logo under its bar, or its label text
// when no logo exists.
func (c *Compositor) drawLogos(dst *image.RGBA) {
	s := c.layout.Scale
	size := int(logoSize * s)
	layout := c.renderer.LayoutArea()
	face := c.fonts.Face(false, labelSize*s)

	for i, label := range c.content.Series.Labels {
		pos, err := c.renderer.CategoryPosition(i)
		if err != nil {
			return
		}
		slot := chart.LogoSlot(c.content.Kind, layout, pos, size, s)
		var logo image.Image
		if c.logos != nil {
			logo = c.logos.Get(label)
		}
		if logo == nil {
			chart.DrawTextCentered(dst, face, label, (slot.Min.X+slot.Max.X)/2, slot.Min.Y+chart.Ascent(face), c.content.Style.Text)
			continue
		}
		fitLogo(dst, slot, logo)
	}
}

// fitLogo scales logo into slot keeping its aspect ratio.
func fitLogo(dst *image.RGBA, slot image.Rectangle, logo image.Image) {
	lb := logo.Bounds()
	if lb.Empty() || slot.Empty() {
		return
	}
	w, h := slot.Dx(), slot.Dy()
	if lb.Dx()*h > lb.Dy()*w {
		h = lb.Dy() * w / lb.Dx()
	} else {
		w = lb.Dx() * h / lb.Dy()
	}
	off := image.Pt(slot.Min.X+(slot.Dx()-w)/2, slot.Min.Y+(slot.Dy()-h)/2)
	xdraw.CatmullRom.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, logo, lb, draw.Over, nil)
}

// drawValueLabels prints each category's value above its anchor, fading
// and rising as the label animation progresses.
func (c *Compositor) drawValueLabels(dst *image.RGBA, f animation.Frame) {
	s := c.layout.Scale
	face := c.fonts.Face(true, labelSize*s)
	horizontal := false
	if b, ok := c.content.Kind.(chart.Bar); ok {
		horizontal = b.Horizontal
	}
	base := colorOf(c.content.Style.Text)

	for i, v := range c.content.Series.Values {
		if i >= len(f.LabelOpacity) || f.LabelOpacity[i] <= 0 {
			continue
		}
		pos, err := c.renderer.CategoryPosition(i)
		if err != nil {
			return
		}
		col := base
		col.A = uint8(float64(base.A) * f.LabelOpacity[i])
		txt := c.format.Format(v)
		off := int(f.LabelOffset[i] * s)
		gap := int(textGap * s)
		if horizontal {
			chart.DrawText(dst, face, txt, pos.X+gap, pos.Y+chart.Ascent(face)/3+off, col)
		} else {
			chart.DrawTextCentered(dst, face, txt, pos.X, pos.Y-gap+off, col)
		}
	}
}

func colorOf(c chart.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// qrBadge renders url as a borderless QR code of about size pixels.
func qrBadge(url string, size int) (image.Image, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Image(max(size, 21)), nil
}
