package export

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/chart2video/internal/compositor"
	"github.com/ivlev/chart2video/internal/media"
)

// StillQuality is the JPEG quality of opaque stills.
const StillQuality = 95

// StillJob is a single frame written as an image.
type StillJob struct {
	At     float64
	Size   image.Point
	Alpha  bool
	Output string
}

// StillPath forces .png for alpha stills and .jpg otherwise.
func StillPath(path string, alpha bool) string {
	ext := ".jpg"
	if alpha {
		ext = ".png"
	}
	if path == "" {
		return "chart" + ext
	}
	switch cur := strings.ToLower(filepath.Ext(path)); cur {
	case ".jpg", ".jpeg", ".png":
		return strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}
	return path + ext
}

// Still renders the frame at job.At. Opaque stills include the background
// and are JPEG; alpha stills are PNG with only the panel painted.
func (p *Pipeline) Still(ctx context.Context, job StillJob) (string, error) {
	if job.Size.X <= 0 || job.Size.Y <= 0 {
		return "", fmt.Errorf("invalid still size %v", job.Size)
	}
	if job.At < 0 || job.At > p.sess.Duration() {
		return "", fmt.Errorf("still at %.3fs outside [0,%.3f]", job.At, p.sess.Duration())
	}
	if err := p.sess.Begin(); err != nil {
		return "", err
	}
	defer p.sess.End()
	snapshot := p.sess.Suspend()
	defer p.sess.Resume(snapshot)

	renderer, err := p.backend.NewRenderer()
	if err != nil {
		return "", fmt.Errorf("chart renderer: %w", err)
	}
	comp, err := compositor.New(job.Size, renderer, p.opts.Logos)
	if err != nil {
		return "", err
	}
	if err := comp.SetContent(p.sess.Content()); err != nil {
		return "", fmt.Errorf("configure chart: %w", err)
	}

	if clip := p.sess.Clip(); clip != nil && !job.Alpha {
		if err := media.SeekExact(ctx, clip, job.At, p.opts.SeekTimeout); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			p.logger.Printf("[!] Фон не готов на %.3fs: %v", job.At, err)
		}
	}
	img := comp.Compose(p.sess.Background(), p.sess.FrameAt(job.At), job.Alpha)

	out := StillPath(job.Output, job.Alpha)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)
	if job.Alpha {
		err = png.Encode(w, img)
	} else {
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: StillQuality})
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return "", fmt.Errorf("write still: %w", err)
	}
	return out, nil
}
