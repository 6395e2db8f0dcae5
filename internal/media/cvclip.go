//go:build opencv

package media

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// cvDecoder decodes through OpenCV's VideoCapture, which seeks by timestamp.
type cvDecoder struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	size image.Point
	last *image.RGBA
}

// OpenCVClip opens path with OpenCV. Only available in builds tagged opencv.
func OpenCVClip(path string, opts OpenOptions) (Clip, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoderUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: cannot open %s", ErrDecoderUnavailable, path)
	}
	size := opts.Size
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(1920, 1080)
	}

	var duration float64
	if fps := vc.Get(gocv.VideoCaptureFPS); fps > 0 {
		duration = vc.Get(gocv.VideoCaptureFrameCount) / fps
	}
	dec := &cvDecoder{vc: vc, mat: gocv.NewMat(), size: size}
	return newClip(dec, size, duration), nil
}

func (d *cvDecoder) seek(seconds float64) error {
	d.vc.Set(gocv.VideoCapturePosMsec, seconds*1000)
	return nil
}

func (d *cvDecoder) decode() (*image.RGBA, error) {
	if ok := d.vc.Read(&d.mat); !ok || d.mat.Empty() {
		if d.last != nil {
			return d.last, nil
		}
		return nil, fmt.Errorf("opencv: no frame")
	}
	img, err := d.mat.ToImage()
	if err != nil {
		return nil, err
	}
	fitted := CoverFit(img, d.size)
	d.last = fitted
	return fitted, nil
}

func (d *cvDecoder) close() error {
	d.mat.Close()
	return d.vc.Close()
}
