package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/chart2video/internal/system"
)

// ffmpegPipe feeds raw data to an ffmpeg child through stdin. The child is
// supervised so a crash surfaces on the next write instead of a broken pipe.
type ffmpegPipe struct {
	stdin  io.WriteCloser
	stderr bytes.Buffer
	g      errgroup.Group
	closed bool
}

func startPipe(ctx context.Context, bin string, args []string) (*ffmpegPipe, error) {
	p := &ffmpegPipe{}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &p.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg start error: %v", ErrCapabilityUnavailable, err)
	}
	p.stdin = stdin
	p.g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg error: %v, output: %s", err, strings.TrimSpace(p.stderr.String()))
		}
		return nil
	})
	return p, nil
}

func (p *ffmpegPipe) write(b []byte) error {
	if p.closed {
		return ErrClosed
	}
	if _, err := p.stdin.Write(b); err != nil {
		p.closed = true
		p.stdin.Close()
		if werr := p.g.Wait(); werr != nil {
			return werr
		}
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (p *ffmpegPipe) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.stdin.Close()
	return p.g.Wait()
}

// FFmpegEncoder pipes RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	s      Settings
	pipe   *ffmpegPipe
	stream Stream
	pts    ptsGuard
	frame  *image.RGBA
}

// NewFFmpegEncoder starts ffmpeg writing H.264 in MP4, or ProRes 4444 in
// MOV when s.Alpha is set.
func NewFFmpegEncoder(ctx context.Context, s Settings) (*FFmpegEncoder, error) {
	if !s.Alpha && s.Encoder == "" {
		s.Encoder = system.BestH264Encoder(s.ffmpeg())
	}
	if s.Quality <= 0 {
		s.Quality = system.DefaultQuality(s.Encoder)
	}
	out := workPath(s, "video"+OutputExt(s.Alpha))
	pipe, err := startPipe(ctx, s.ffmpeg(), encodeArgs(s, out))
	if err != nil {
		return nil, err
	}
	return &FFmpegEncoder{s: s, pipe: pipe, stream: Stream{Path: out}}, nil
}

func encodeArgs(s Settings, out string) []string {
	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", s.Size.X, s.Size.Y),
		"-framerate", strconv.FormatFloat(s.FPS, 'f', -1, 64),
		"-i", "-",
	}
	if s.Alpha {
		args = append(args,
			"-c:v", "prores_ks",
			"-profile:v", "4444",
			"-pix_fmt", "yuva444p10le",
		)
	} else {
		args = append(args,
			"-c:v", s.Encoder,
			"-pix_fmt", "yuv420p",
			"-g", strconv.Itoa(s.gop()),
			"-force_key_frames", fmt.Sprintf("expr:eq(mod(n,%d),0)", s.gop()),
		)
		args = append(args, system.QualityArgs(s.Encoder, s.Quality)...)
	}
	return append(args, out)
}

func (e *FFmpegEncoder) EncodeFrame(ctx context.Context, img *image.RGBA, pts int64, keyframe bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.pts.check(pts); err != nil {
		return err
	}
	return e.pipe.write(e.raw(img))
}

// raw returns tightly packed pixels of the configured size.
func (e *FFmpegEncoder) raw(img *image.RGBA) []byte {
	r := image.Rectangle{Max: e.s.Size}
	if img.Rect == r && img.Stride == r.Dx()*4 {
		return img.Pix
	}
	if e.frame == nil {
		e.frame = image.NewRGBA(r)
	}
	draw.Draw(e.frame, r, img, img.Rect.Min, draw.Src)
	return e.frame.Pix
}

// Flush is a no-op: ffmpeg drains on Close.
func (e *FFmpegEncoder) Flush() error { return nil }

func (e *FFmpegEncoder) Close() error { return e.pipe.close() }

func (e *FFmpegEncoder) Stream() Stream { return e.stream }

// FFmpegAudioEncoder pipes s16 PCM into ffmpeg producing AAC in M4A.
type FFmpegAudioEncoder struct {
	pipe     *ffmpegPipe
	stream   Stream
	pts      ptsGuard
	channels int
}

// NewFFmpegAudioEncoder starts an AAC encode of rate/channels PCM into workDir.
func NewFFmpegAudioEncoder(ctx context.Context, ffmpegBin, workDir string, rate, channels int) (*FFmpegAudioEncoder, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if rate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid audio format %d Hz x %d", rate, channels)
	}
	out := workPath(Settings{WorkDir: workDir}, "audio.m4a")
	pipe, err := startPipe(ctx, ffmpegBin, audioArgs(rate, channels, out))
	if err != nil {
		return nil, err
	}
	return &FFmpegAudioEncoder{pipe: pipe, stream: Stream{Path: out}, channels: channels}, nil
}

func audioArgs(rate, channels int, out string) []string {
	return []string{
		"-y",
		"-v", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"-i", "-",
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	}
}

func (e *FFmpegAudioEncoder) EncodeChunk(ctx context.Context, samples []int16, pts int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(samples)%e.channels != 0 {
		return fmt.Errorf("chunk of %d samples is not whole frames of %d channels", len(samples), e.channels)
	}
	if err := e.pts.check(pts); err != nil {
		return err
	}
	return e.pipe.write(s16le(samples))
}

func (e *FFmpegAudioEncoder) Flush() error { return nil }

func (e *FFmpegAudioEncoder) Close() error { return e.pipe.close() }

func (e *FFmpegAudioEncoder) Stream() Stream { return e.stream }

func s16le(s []int16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		b[2*i] = byte(v)
		b[2*i+1] = byte(uint16(v) >> 8)
	}
	return b
}
