package chart

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Fonts caches faces per weight and pixel size. Faces are not safe for
// concurrent use, so each renderer or compositor owns its own Fonts.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size int
}

// LoadFonts parses the embedded Go fonts.
func LoadFonts() (*Fonts, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &Fonts{regular: reg, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// Face returns a face of the given pixel size. On failure it falls back to
// the fixed 7x13 face rather than failing the frame.
func (f *Fonts) Face(bold bool, size float64) font.Face {
	k := faceKey{bold: bold, size: int(math.Round(math.Max(size, 1)))}
	if face, ok := f.faces[k]; ok {
		return face
	}
	src := f.regular
	if bold {
		src = f.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    float64(k.size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	f.faces[k] = face
	return face
}

// TextWidth is the advance of s in pixels.
func TextWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight is ascent plus descent in pixels.
func LineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Ascent is the distance from the top of a line to its baseline.
func Ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

// DrawText paints s with its baseline starting at (x, y).
func DrawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// DrawTextCentered centres s horizontally on cx.
func DrawTextCentered(dst draw.Image, face font.Face, s string, cx, y int, c color.Color) {
	DrawText(dst, face, s, cx-TextWidth(face, s)/2, y, c)
}

// DrawTextRight right-aligns s so it ends at x.
func DrawTextRight(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	DrawText(dst, face, s, x-TextWidth(face, s), y, c)
}
