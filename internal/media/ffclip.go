package media

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/ivlev/chart2video/internal/system"
)

// maxSkip is how far ahead a seek may be served by reading frames forward
// instead of restarting ffmpeg.
const maxSkip = 1.0

// ffmpegDecoder streams raw RGBA frames from an ffmpeg child process.
// Sequential seeks read forward; anything else restarts the stream.
type ffmpegDecoder struct {
	bin  string
	path string
	size image.Point
	fps  float64

	cmd  *exec.Cmd
	out  *bufio.Reader
	pipe io.ReadCloser
	next float64
	eof  bool
	last *image.RGBA
}

// OpenFFmpegClip opens path for frame-accurate decoding at opts.Size and opts.FPS.
func OpenFFmpegClip(path string, opts OpenOptions) (Clip, error) {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if _, err := exec.LookPath(opts.FFmpeg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoderUnavailable, err)
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		opts.Size = image.Pt(1920, 1080)
	}
	duration, err := system.MediaDuration(opts.FFprobe, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	dec := &ffmpegDecoder{bin: opts.FFmpeg, path: path, size: opts.Size, fps: opts.FPS}
	return newClip(dec, opts.Size, duration), nil
}

func (d *ffmpegDecoder) frameStep() float64 { return 1 / d.fps }

func (d *ffmpegDecoder) seek(seconds float64) error {
	const eps = 1e-6
	if d.cmd != nil && seconds >= d.next-d.frameStep()+eps && seconds-d.next < maxSkip {
		for !d.eof && d.next+d.frameStep() <= seconds+eps {
			if _, err := d.read(); err != nil {
				return err
			}
		}
		return nil
	}
	return d.restart(seconds)
}

func (d *ffmpegDecoder) restart(seconds float64) error {
	d.stop()
	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.6f", seconds),
		"-i", d.path,
		"-an",
		"-vf", fmt.Sprintf("%s,fps=%g", CoverFilter(d.size), d.fps),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
	cmd := exec.Command(d.bin, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	d.cmd, d.pipe = cmd, pipe
	d.out = bufio.NewReaderSize(pipe, d.size.X*d.size.Y*4)
	d.next = seconds
	d.eof = false
	return nil
}

func (d *ffmpegDecoder) read() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rectangle{Max: d.size})
	if _, err := io.ReadFull(d.out, img.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// past the end: keep showing the last frame
			d.eof = true
			return d.last, nil
		}
		return nil, err
	}
	d.next += d.frameStep()
	d.last = img
	return img, nil
}

func (d *ffmpegDecoder) decode() (*image.RGBA, error) {
	if d.cmd == nil {
		if err := d.restart(0); err != nil {
			return nil, err
		}
	}
	if d.eof {
		if d.last == nil {
			return nil, io.EOF
		}
		return d.last, nil
	}
	img, err := d.read()
	if err == nil && img == nil {
		err = io.EOF
	}
	return img, err
}

func (d *ffmpegDecoder) stop() {
	if d.cmd == nil {
		return
	}
	d.pipe.Close()
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.cmd.Wait()
	d.cmd = nil
}

func (d *ffmpegDecoder) close() error {
	d.stop()
	return nil
}
