// Package video turns composed frames and PCM audio into an encoded file:
// video encoder backends, an AAC audio encoder and the container muxer.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
)

var (
	// ErrCapabilityUnavailable means the requested codec or tool is missing.
	ErrCapabilityUnavailable = errors.New("encoder capability unavailable")
	ErrNonMonotonic          = errors.New("timestamps must increase")
	ErrClosed                = errors.New("encoder closed")
)

// Backends.
const (
	BackendFFmpeg = "ffmpeg"
	BackendX264   = "x264"
)

// DefaultKeyframeInterval is the GOP length in frames.
const DefaultKeyframeInterval = 60

// Settings describe one video stream.
type Settings struct {
	FFmpeg  string
	Backend string
	// Encoder is the ffmpeg H.264 encoder; empty means probe for the best one.
	Encoder string
	Quality int

	Size             image.Point
	FPS              float64
	Alpha            bool
	KeyframeInterval int

	// WorkDir receives the intermediate streams.
	WorkDir string
}

func (s Settings) ffmpeg() string {
	if s.FFmpeg == "" {
		return "ffmpeg"
	}
	return s.FFmpeg
}

func (s Settings) gop() int {
	if s.KeyframeInterval <= 0 {
		return DefaultKeyframeInterval
	}
	return s.KeyframeInterval
}

// Stream is an encoded elementary or single-stream file ready for muxing.
type Stream struct {
	Path string
	// Format is the ffmpeg demuxer to force on input, empty to autodetect.
	Format string
	// FPS is needed for raw bitstreams that carry no timing.
	FPS float64
}

// Encoder accepts frames in presentation order.
type Encoder interface {
	// EncodeFrame blocks until the frame is accepted. pts is in microseconds.
	EncodeFrame(ctx context.Context, img *image.RGBA, pts int64, keyframe bool) error
	// Flush drains buffered frames.
	Flush() error
	// Close finishes the stream and releases the encoder.
	Close() error
	Stream() Stream
}

// AudioEncoder accepts interleaved s16 chunks in sample order.
type AudioEncoder interface {
	EncodeChunk(ctx context.Context, samples []int16, pts int64) error
	Flush() error
	Close() error
	Stream() Stream
}

// Muxer combines the encoded streams into the final container.
type Muxer interface {
	Mux(ctx context.Context, v Stream, a *Stream, out string) error
}

// NewEncoder opens the backend selected in s.
func NewEncoder(ctx context.Context, s Settings) (Encoder, error) {
	if s.Size.X <= 0 || s.Size.Y <= 0 || s.FPS <= 0 {
		return nil, fmt.Errorf("invalid video settings %vx@%g", s.Size, s.FPS)
	}
	if s.WorkDir == "" {
		return nil, fmt.Errorf("video work dir is required")
	}
	switch s.Backend {
	case "", BackendFFmpeg:
		return NewFFmpegEncoder(ctx, s)
	case BackendX264:
		return NewX264Encoder(s)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrCapabilityUnavailable, s.Backend)
}

// OutputExt is the container extension for the final file.
func OutputExt(alpha bool) string {
	if alpha {
		return ".mov"
	}
	return ".mp4"
}

func workPath(s Settings, name string) string {
	return filepath.Join(s.WorkDir, name)
}

// ptsGuard rejects timestamps that do not strictly increase.
type ptsGuard struct {
	last    int64
	started bool
}

func (g *ptsGuard) check(pts int64) error {
	if g.started && pts <= g.last {
		return fmt.Errorf("%w: %d after %d", ErrNonMonotonic, pts, g.last)
	}
	g.last, g.started = pts, true
	return nil
}
