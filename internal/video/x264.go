package video

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/x264-go"
)

// X264Encoder encodes in-process with libx264 into a raw Annex B stream.
// It has no alpha support.
type X264Encoder struct {
	f      *os.File
	w      *bufio.Writer
	enc    *x264.Encoder
	stream Stream
	pts    ptsGuard
	closed bool
}

func NewX264Encoder(s Settings) (*X264Encoder, error) {
	if s.Alpha {
		return nil, fmt.Errorf("%w: x264 cannot carry alpha", ErrCapabilityUnavailable)
	}
	if s.Size.X%2 != 0 || s.Size.Y%2 != 0 {
		return nil, fmt.Errorf("x264 needs even dimensions, got %dx%d", s.Size.X, s.Size.Y)
	}
	out := workPath(s, "video.h264")
	f, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1<<20)

	enc, err := x264.NewEncoder(w, &x264.Options{
		Width:     s.Size.X,
		Height:    s.Size.Y,
		FrameRate: int(s.FPS + 0.5),
		Tune:      "animation",
		Preset:    "medium",
		Profile:   "high",
		LogLevel:  x264.LogError,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	return &X264Encoder{
		f:      f,
		w:      w,
		enc:    enc,
		stream: Stream{Path: out, Format: "h264", FPS: s.FPS},
	}, nil
}

// EncodeFrame hands the frame to libx264. Keyframe placement follows the
// encoder's own GOP; the flag is informational.
func (e *X264Encoder) EncodeFrame(ctx context.Context, img *image.RGBA, pts int64, keyframe bool) error {
	if e.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.pts.check(pts); err != nil {
		return err
	}
	return e.enc.Encode(img)
}

func (e *X264Encoder) Flush() error {
	if e.closed {
		return nil
	}
	if err := e.enc.Flush(); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *X264Encoder) Close() error {
	if e.closed {
		return nil
	}
	ferr := e.Flush()
	e.closed = true
	cerr := e.enc.Close()
	if err := e.f.Close(); err != nil && ferr == nil && cerr == nil {
		return err
	}
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (e *X264Encoder) Stream() Stream { return e.stream }
