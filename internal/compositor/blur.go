package compositor

import (
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// boxPasses box blurs approximate a gaussian.
const boxPasses = 3

// Blur returns a blurred copy of the part of src inside r. The result has
// bounds r. Pixels outside src are treated as edge-extended.
func Blur(src *image.RGBA, r image.Rectangle, radius int) *image.RGBA {
	r = r.Intersect(src.Bounds())
	dst := image.NewRGBA(r)
	if r.Empty() {
		return dst
	}
	// read a margin around r so the edges blend with their surroundings
	m := radius * boxPasses
	outer := r.Inset(-m).Intersect(src.Bounds())
	work := image.NewRGBA(outer)
	copy2D(work, src, outer)

	if radius > 0 {
		tmp := image.NewRGBA(outer)
		for range boxPasses {
			parallelRows(outer, func(y0, y1 int) { boxH(tmp, work, radius, y0, y1) })
			parallelCols(outer, func(x0, x1 int) { boxV(work, tmp, radius, x0, x1) })
		}
	}
	copy2D(dst, work, r)
	return dst
}

func copy2D(dst, src *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(dst.Pix[dst.PixOffset(r.Min.X, y):dst.PixOffset(r.Max.X, y)], src.Pix[src.PixOffset(r.Min.X, y):src.PixOffset(r.Max.X, y)])
	}
}

func bands(lo, hi int) int {
	return max(1, min(runtime.GOMAXPROCS(0), (hi-lo)/16))
}

func parallelRows(r image.Rectangle, fn func(y0, y1 int)) {
	split(r.Min.Y, r.Max.Y, fn)
}

func parallelCols(r image.Rectangle, fn func(x0, x1 int)) {
	split(r.Min.X, r.Max.X, fn)
}

func split(lo, hi int, fn func(a, b int)) {
	n := bands(lo, hi)
	step := (hi - lo + n - 1) / n
	var g errgroup.Group
	for a := lo; a < hi; a += step {
		b := min(a+step, hi)
		g.Go(func() error {
			fn(a, b)
			return nil
		})
	}
	g.Wait()
}

// boxH averages each row of src over a 2*radius+1 window into dst.
func boxH(dst, src *image.RGBA, radius, y0, y1 int) {
	b := src.Rect
	w := b.Dx()
	win := 2*radius + 1
	for y := y0; y < y1; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, y):]
		out := dst.Pix[dst.PixOffset(b.Min.X, y):]
		var sum [4]int
		at := func(x int) int { return max(0, min(x, w-1)) * 4 }
		for x := -radius; x <= radius; x++ {
			i := at(x)
			for c := range 4 {
				sum[c] += int(row[i+c])
			}
		}
		for x := 0; x < w; x++ {
			for c := range 4 {
				out[x*4+c] = uint8(sum[c] / win)
			}
			add, sub := at(x+radius+1), at(x-radius)
			for c := range 4 {
				sum[c] += int(row[add+c]) - int(row[sub+c])
			}
		}
	}
}

// boxV is boxH along columns.
func boxV(dst, src *image.RGBA, radius, x0, x1 int) {
	b := src.Rect
	h := b.Dy()
	win := 2*radius + 1
	at := func(x, y int) int { return src.PixOffset(x, b.Min.Y+max(0, min(y, h-1))) }
	for x := x0; x < x1; x++ {
		var sum [4]int
		for y := -radius; y <= radius; y++ {
			i := at(x, y)
			for c := range 4 {
				sum[c] += int(src.Pix[i+c])
			}
		}
		for y := 0; y < h; y++ {
			o := dst.PixOffset(x, b.Min.Y+y)
			for c := range 4 {
				dst.Pix[o+c] = uint8(sum[c] / win)
			}
			add, sub := at(x, y+radius+1), at(x, y-radius)
			for c := range 4 {
				sum[c] += int(src.Pix[add+c]) - int(src.Pix[sub+c])
			}
		}
	}
}
