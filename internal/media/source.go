// Package media provides the background layer (still image, PDF page or
// video clip), its seek-and-wait synchronisation, soundtrack decoding and
// logo lookup.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSeekTimeout        = errors.New("background seek timed out")
	ErrDecoderUnavailable = errors.New("video decoder unavailable")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
)

// Source is a background layer.
type Source interface {
	// Frame returns the current picture cover-fitted to size.
	Frame(size image.Point) (*image.RGBA, error)
	Close() error
}

// Kind classifies a background path by extension.
type Kind int

const (
	KindNone Kind = iota
	KindImage
	KindPDF
	KindVideo
)

var videoExt = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".mkv": true, ".m4v": true, ".avi": true}

// KindOf reports how path would be opened.
func KindOf(path string) Kind {
	if path == "" {
		return KindNone
	}
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".jpg" || ext == ".jpeg" || ext == ".png":
		return KindImage
	case ext == ".pdf":
		return KindPDF
	case videoExt[ext]:
		return KindVideo
	}
	return KindNone
}

// OpenOptions configures Open.
type OpenOptions struct {
	FFmpeg  string
	FFprobe string
	// Decoder is "ffmpeg" or "opencv".
	Decoder string
	// Size and FPS are the decode geometry for video clips.
	Size image.Point
	FPS  float64
	// DPI for PDF pages.
	DPI int
}

// Open picks a Source for path. An empty path yields the default gradient.
func Open(path string, opts OpenOptions) (Source, error) {
	switch KindOf(path) {
	case KindNone:
		if path == "" {
			return Gradient{}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(path))
	case KindImage:
		return OpenImage(path)
	case KindPDF:
		return OpenPDF(path, opts.DPI)
	}

	if opts.Decoder == "opencv" {
		return OpenCVClip(path, opts)
	}
	return OpenFFmpegClip(path, opts)
}

// Still is a fixed picture.
type Still struct {
	img    image.Image
	fitted *image.RGBA
}

// NewStill wraps an already decoded image.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

// OpenImage decodes a JPEG or PNG file.
func OpenImage(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewStill(img), nil
}

// Frame caches the fitted copy for the last requested size.
func (s *Still) Frame(size image.Point) (*image.RGBA, error) {
	if s.fitted != nil && s.fitted.Rect.Size() == size {
		return s.fitted, nil
	}
	s.fitted = CoverFit(s.img, size)
	return s.fitted, nil
}

func (s *Still) Close() error { return nil }
