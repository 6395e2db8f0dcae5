// Package export renders a range of the timeline frame by frame into an
// encoded file. Only one export runs at a time per session and per lock file.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/ivlev/chart2video/internal/compositor"
	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/media"
	"github.com/ivlev/chart2video/internal/session"
	"github.com/ivlev/chart2video/internal/video"
)

// ErrBusy is returned when another export holds the session or the lock file.
var ErrBusy = session.ErrBusy

// Options tune one pipeline.
type Options struct {
	// Output is the target file; its extension follows the job (.mp4, or .mov with alpha).
	Output string
	// TempDir is where the per-job work directory is created. Empty means os.TempDir.
	TempDir  string
	LockFile string

	// Video carries the encoder choice; size, rate and alpha come from the job.
	Video       video.Settings
	SeekTimeout time.Duration
	AudioRate   int
	AudioChunk  int

	// Logos resolves category logos, may be nil.
	Logos compositor.Logos

	OnProgress func(Progress)
	Logger     *log.Logger
}

// Result describes a finished export.
type Result struct {
	ID            string
	Output        string
	Frames        int
	Warnings      int64
	AudioIncluded bool
	Encoder       string
	Elapsed       time.Duration
	RenderTime    time.Duration
	MuxTime       time.Duration
}

// Pipeline runs export jobs against a session.
type Pipeline struct {
	sess    *session.Session
	backend Backend
	opts    Options
	state   atomic.Int32
	logger  *log.Logger
}

// New returns an idle pipeline.
func New(sess *session.Session, backend Backend, opts Options) *Pipeline {
	if opts.AudioRate <= 0 {
		opts.AudioRate = config.DefaultAudioRate
	}
	if opts.AudioChunk <= 0 {
		opts.AudioChunk = config.DefaultAudioChunk
	}
	if opts.SeekTimeout <= 0 {
		opts.SeekTimeout = media.DefaultSeekTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{sess: sess, backend: backend, opts: opts, logger: logger}
}

// State of the current or last run.
func (p *Pipeline) State() State { return State(p.state.Load()) }

func (p *Pipeline) setState(s State, frame, frames int) {
	p.state.Store(int32(s))
	p.report(Progress{State: s, Frame: frame, Frames: frames})
}

func (p *Pipeline) report(pr Progress) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(pr)
	}
}

// Run exports job. A job that fails validation returns before anything is
// created. Concurrent calls get ErrBusy. Single bad frames and audio
// failures degrade the output; encoder and muxer failures abort it. The
// preview position is restored in every case.
func (p *Pipeline) Run(ctx context.Context, job config.ExportJob) (res Result, err error) {
	if err := job.Validate(); err != nil {
		return Result{}, err
	}
	if err := p.sess.Begin(); err != nil {
		return Result{}, err
	}
	defer p.sess.End()

	if p.opts.LockFile != "" {
		if err := os.MkdirAll(filepath.Dir(p.opts.LockFile), 0o755); err != nil {
			return Result{}, fmt.Errorf("create lock directory: %w", err)
		}
		lock := flock.New(p.opts.LockFile)
		ok, err := lock.TryLock()
		if err != nil {
			return Result{}, fmt.Errorf("acquire export lock: %w", err)
		}
		if !ok {
			return Result{}, fmt.Errorf("%w: %s is held by another process", ErrBusy, p.opts.LockFile)
		}
		defer lock.Unlock()
	}

	start := time.Now()
	frames := job.FrameCount()
	p.setState(Preparing, 0, frames)
	defer func() {
		if err != nil {
			p.setState(Failed, 0, frames)
		}
	}()

	settings := p.opts.Video
	settings.Size = job.Size()
	settings.FPS = job.FPS
	settings.Alpha = job.Alpha
	caps, err := p.backend.Probe(settings)
	if err != nil {
		return Result{}, err
	}
	if settings.Backend != video.BackendX264 {
		settings.Encoder = caps.Encoder
	}

	snapshot := p.sess.Suspend()
	defer p.sess.Resume(snapshot)

	res.ID = uuid.NewString()
	res.Encoder = caps.Encoder
	res.Frames = frames
	workDir, err := os.MkdirTemp(p.opts.TempDir, "chart2video-"+res.ID[:8]+"-")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	settings.WorkDir = workDir

	renderer, err := p.backend.NewRenderer()
	if err != nil {
		return Result{}, fmt.Errorf("chart renderer: %w", err)
	}
	comp, err := compositor.New(job.Size(), renderer, p.opts.Logos)
	if err != nil {
		return Result{}, err
	}
	comp.OnWarning = func(err error) {
		p.logger.Printf("[!] Кадр заменен запасным: %v", err)
	}
	if err := comp.SetContent(p.sess.Content()); err != nil {
		return Result{}, fmt.Errorf("configure chart: %w", err)
	}

	var pcm *media.PCM
	if job.IncludeAudio {
		pcm = p.extractAudio(ctx, job, caps, frames)
	}

	renderStart := time.Now()
	enc, err := p.backend.NewVideo(ctx, settings)
	if err != nil {
		return Result{}, fmt.Errorf("open video encoder: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			enc.Close()
		}
	}()

	p.setState(EncodingFrames, 0, frames)
	seekWarnings, err := p.encodeFrames(ctx, job, settings, comp, enc)
	if err != nil {
		return Result{}, err
	}
	if err := enc.Flush(); err != nil {
		return Result{}, fmt.Errorf("flush video: %w", err)
	}
	closed = true
	if err := enc.Close(); err != nil {
		return Result{}, fmt.Errorf("close video: %w", err)
	}
	res.RenderTime = time.Since(renderStart)

	var audio *video.Stream
	if pcm != nil {
		p.setState(FlushingAudio, frames, frames)
		if audio, err = p.encodeAudio(ctx, job, workDir, *pcm); err != nil {
			p.logger.Printf("[!] Аудио пропущено, экспорт только видео: %v", err)
			audio = nil
		}
	}

	p.setState(Muxing, frames, frames)
	muxStart := time.Now()
	out := OutputPath(p.opts.Output, job.Alpha)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	if err := p.backend.Muxer.Mux(ctx, enc.Stream(), audio, out); err != nil {
		return Result{}, fmt.Errorf("mux: %w", err)
	}
	res.MuxTime = time.Since(muxStart)

	res.Output = out
	res.AudioIncluded = audio != nil
	res.Warnings = comp.Warnings() + seekWarnings
	res.Elapsed = time.Since(start)
	p.setState(Done, frames, frames)
	return res, nil
}

// extractAudio loads the soundtrack. Any failure means a silent export.
func (p *Pipeline) extractAudio(ctx context.Context, job config.ExportJob, caps video.Capabilities, frames int) *media.PCM {
	if !caps.Audio {
		p.logger.Printf("[!] AAC-кодер недоступен, экспорт без звука")
		return nil
	}
	src := p.sess.AudioSource()
	if src == "" {
		return nil
	}
	p.setState(ExtractingAudio, 0, frames)
	pcm, err := p.backend.LoadAudio(ctx, src, p.opts.AudioRate)
	if err != nil {
		if !errors.Is(err, media.ErrNoAudio) {
			p.logger.Printf("[!] Не удалось извлечь аудио из %s: %v", filepath.Base(src), err)
		}
		return nil
	}
	if pcm.Slice(job.Start, job.End).Frames() == 0 {
		return nil
	}
	return &pcm
}

// encodeFrames produces frames strictly in timestamp order. It returns the
// number of background seeks that timed out or failed.
func (p *Pipeline) encodeFrames(ctx context.Context, job config.ExportJob, s video.Settings, comp *compositor.Compositor, enc video.Encoder) (int64, error) {
	var warnings int64
	frames := job.FrameCount()
	bg := p.sess.Background()
	clip := p.sess.Clip()
	gop := s.KeyframeInterval
	if gop <= 0 {
		gop = video.DefaultKeyframeInterval
	}

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}
		t := job.Seconds(i)
		if clip != nil && !job.Alpha {
			if err := media.SeekExact(ctx, clip, t, p.opts.SeekTimeout); err != nil {
				if ctx.Err() != nil {
					return warnings, ctx.Err()
				}
				warnings++
				p.logger.Printf("[!] Кадр %d: фон не готов на %.3fs: %v", i, t, err)
			}
		}

		img := comp.Compose(bg, p.sess.FrameAt(t), job.Alpha)
		if err := enc.EncodeFrame(ctx, img, job.PTS(i), i%gop == 0); err != nil {
			return warnings, fmt.Errorf("encode frame %d: %w", i, err)
		}
		p.report(Progress{State: EncodingFrames, Frame: i + 1, Frames: frames})
	}
	return warnings, nil
}

// encodeAudio cuts the soundtrack to the job range and feeds it in chunks.
func (p *Pipeline) encodeAudio(ctx context.Context, job config.ExportJob, workDir string, pcm media.PCM) (*video.Stream, error) {
	part := pcm.Slice(job.Start, job.End)
	aenc, err := p.backend.NewAudio(ctx, workDir, part.Rate, part.Channels)
	if err != nil {
		return nil, err
	}
	for _, c := range part.Chunks(p.opts.AudioChunk) {
		if err := aenc.EncodeChunk(ctx, c.Samples, c.Timestamp(part.Rate)); err != nil {
			aenc.Close()
			return nil, err
		}
	}
	if err := aenc.Flush(); err != nil {
		aenc.Close()
		return nil, err
	}
	if err := aenc.Close(); err != nil {
		return nil, err
	}
	st := aenc.Stream()
	return &st, nil
}

// OutputPath forces the container extension that matches the job.
func OutputPath(path string, alpha bool) string {
	ext := video.OutputExt(alpha)
	if path == "" {
		return "chart" + ext
	}
	if cur := filepath.Ext(path); strings.EqualFold(cur, ".mp4") || strings.EqualFold(cur, ".mov") {
		return strings.TrimSuffix(path, cur) + ext
	}
	return path + ext
}
