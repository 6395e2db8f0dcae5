package media

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// CoverFit scales img to fill size, cropping the overflow around the centre.
func CoverFit(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	b := img.Bounds()
	if b.Empty() || size.X <= 0 || size.Y <= 0 {
		return dst
	}

	scale := math.Max(float64(size.X)/float64(b.Dx()), float64(size.Y)/float64(b.Dy()))
	w := int(math.Ceil(float64(b.Dx()) * scale))
	h := int(math.Ceil(float64(b.Dy()) * scale))
	off := image.Pt(-(w-size.X)/2, -(h-size.Y)/2)
	xdraw.CatmullRom.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, img, b, draw.Src, nil)
	return dst
}

// CoverFilter is the ffmpeg equivalent of CoverFit.
func CoverFilter(size image.Point) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		size.X, size.Y, size.X, size.Y,
	)
}

// Gradient is the default background: a diagonal #1a1a2e to #16213e blend.
type Gradient struct{}

var (
	gradFrom = color.RGBA{0x1a, 0x1a, 0x2e, 0xff}
	gradTo   = color.RGBA{0x16, 0x21, 0x3e, 0xff}
)

func (Gradient) Frame(size image.Point) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	// projection onto the (0,0)-(w,h) diagonal
	dx, dy := float64(size.X), float64(size.Y)
	den := dx*dx + dy*dy
	if den == 0 {
		return dst, nil
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			t := (float64(x)*dx + float64(y)*dy) / den
			dst.SetRGBA(x, y, color.RGBA{
				R: mix(gradFrom.R, gradTo.R, t),
				G: mix(gradFrom.G, gradTo.G, t),
				B: mix(gradFrom.B, gradTo.B, t),
				A: 0xff,
			})
		}
	}
	return dst, nil
}

func (Gradient) Close() error { return nil }

func mix(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
