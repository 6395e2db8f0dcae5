package export

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/media"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/session"
	"github.com/ivlev/chart2video/internal/video"
)

type stubRenderer struct{}

func (stubRenderer) Configure(chart.Kind, chart.Series, chart.Style) error { return nil }
func (stubRenderer) Render(*image.RGBA, []float64, float64) error          { return nil }
func (stubRenderer) CategoryPosition(int) (image.Point, error)             { return image.Point{}, nil }
func (stubRenderer) LayoutArea() image.Rectangle                           { return image.Rectangle{} }

type stubClip struct {
	frames int
	seeks  []float64
	pos    float64
}

func (c *stubClip) Frame(size image.Point) (*image.RGBA, error) {
	c.frames++
	return image.NewRGBA(image.Rectangle{Max: size}), nil
}
func (c *stubClip) Close() error { return nil }
func (c *stubClip) Seek(s float64) *media.SeekOp {
	c.seeks = append(c.seeks, s)
	c.pos = s
	return media.DoneSeek(s, nil)
}
func (c *stubClip) Play()             {}
func (c *stubClip) Pause()            {}
func (c *stubClip) Playing() bool     { return false }
func (c *stubClip) Position() float64 { return c.pos }
func (c *stubClip) Ended() bool       { return false }
func (c *stubClip) Duration() float64 { return 10 }

type frameCall struct {
	pts      int64
	keyframe bool
}

type stubEncoder struct {
	calls  []frameCall
	failAt int
	closed bool
}

func (e *stubEncoder) EncodeFrame(_ context.Context, _ *image.RGBA, pts int64, keyframe bool) error {
	if e.failAt > 0 && len(e.calls) == e.failAt {
		return errors.New("encoder died")
	}
	e.calls = append(e.calls, frameCall{pts, keyframe})
	return nil
}
func (e *stubEncoder) Flush() error         { return nil }
func (e *stubEncoder) Stream() video.Stream { return video.Stream{Path: "video.mp4"} }

func (e *stubEncoder) Close() error {
	e.closed = true
	return nil
}

type stubAudio struct {
	stamps []int64
	frames int
}

func (a *stubAudio) EncodeChunk(_ context.Context, s []int16, pts int64) error {
	a.stamps = append(a.stamps, pts)
	a.frames += len(s) / 2
	return nil
}
func (a *stubAudio) Flush() error         { return nil }
func (a *stubAudio) Close() error         { return nil }
func (a *stubAudio) Stream() video.Stream { return video.Stream{Path: "audio.m4a"} }

type stubMuxer struct {
	calls int
	audio *video.Stream
	out   string
}

func (m *stubMuxer) Mux(_ context.Context, _ video.Stream, a *video.Stream, out string) error {
	m.calls++
	m.audio, m.out = a, out
	return nil
}

type harness struct {
	failAt   int
	probes   int
	encoders int
	enc      *stubEncoder
	audio    *stubAudio
	mux      *stubMuxer
	pcm      media.PCM
	audioErr error
	probeErr error
}

func (h *harness) backend() Backend {
	h.enc = &stubEncoder{failAt: h.failAt}
	h.audio = &stubAudio{}
	h.mux = &stubMuxer{}
	return Backend{
		Probe: func(video.Settings) (video.Capabilities, error) {
			h.probes++
			return video.Capabilities{Encoder: "libx264", Audio: true}, h.probeErr
		},
		NewVideo: func(context.Context, video.Settings) (video.Encoder, error) {
			h.encoders++
			return h.enc, nil
		},
		NewAudio: func(context.Context, string, int, int) (video.AudioEncoder, error) {
			return h.audio, nil
		},
		Muxer: h.mux,
		LoadAudio: func(context.Context, string, int) (media.PCM, error) {
			return h.pcm, h.audioErr
		},
		NewRenderer: func() (chart.Renderer, error) { return stubRenderer{}, nil },
	}
}

func newSession(t *testing.T, bg media.Source) *session.Session {
	t.Helper()
	doc := project.New()
	doc.Chart.Labels = "A, B, C"
	doc.Chart.Values = "10, 20, 5"
	doc.Media.Soundtrack = "track.mp3"
	s, err := session.New(doc, bg)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	return s
}

func newPipeline(t *testing.T, s *session.Session, b Backend, progress func(Progress)) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	return New(s, b, Options{
		Output:     filepath.Join(dir, "out", "graphic.mp4"),
		TempDir:    dir,
		LockFile:   filepath.Join(dir, "export.lock"),
		OnProgress: progress,
		Logger:     log.New(io.Discard, "", 0),
	})
}

func job(start, end float64) config.ExportJob {
	return config.ExportJob{Start: start, End: end, FPS: 25, Width: 384, Height: 216}
}

func TestRunEncodesEveryFrame(t *testing.T) {
	h := &harness{}
	var last Progress
	p := newPipeline(t, newSession(t, nil), h.backend(), func(pr Progress) { last = pr })

	res, err := p.Run(context.Background(), job(0, 3))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Frames != 75 || len(h.enc.calls) != 75 {
		t.Fatalf("frames = %d, encoded = %d, want 75", res.Frames, len(h.enc.calls))
	}
	for i, c := range h.enc.calls {
		if want := int64(i) * 40000; c.pts != want {
			t.Fatalf("frame %d pts = %d, want %d", i, c.pts, want)
		}
		if c.keyframe != (i == 0 || i == 60) {
			t.Errorf("frame %d keyframe = %v", i, c.keyframe)
		}
	}
	if !h.enc.closed || h.mux.calls != 1 {
		t.Errorf("closed = %v, mux calls = %d", h.enc.closed, h.mux.calls)
	}
	if filepath.Ext(res.Output) != ".mp4" || res.Output != h.mux.out {
		t.Errorf("output = %q, muxed to %q", res.Output, h.mux.out)
	}
	if p.State() != Done || last.State != Done || last.Fraction() != 1 {
		t.Errorf("state = %v, last progress = %+v", p.State(), last)
	}
}

func TestTwoSecondsAt25IsFiftyFrames(t *testing.T) {
	h := &harness{}
	p := newPipeline(t, newSession(t, nil), h.backend(), nil)
	res, err := p.Run(context.Background(), job(0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 50 || len(h.enc.calls) != 50 {
		t.Errorf("frames = %d, encoded %d", res.Frames, len(h.enc.calls))
	}
}

func TestInvalidRangeCreatesNothing(t *testing.T) {
	for _, j := range []config.ExportJob{job(2, 2), job(3, 1)} {
		h := &harness{}
		s := newSession(t, nil)
		p := newPipeline(t, s, h.backend(), nil)
		_, err := p.Run(context.Background(), j)
		if !errors.Is(err, config.ErrInvalidRange) {
			t.Errorf("Run(%v..%v) = %v, want ErrInvalidRange", j.Start, j.End, err)
		}
		if h.probes != 0 || h.encoders != 0 {
			t.Errorf("probes = %d, encoders = %d, want none", h.probes, h.encoders)
		}
		if s.Busy() {
			t.Error("session left busy")
		}
	}
}

func TestBusySessionRejects(t *testing.T) {
	h := &harness{}
	s := newSession(t, nil)
	p := newPipeline(t, s, h.backend(), nil)
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	defer s.End()

	if _, err := p.Run(context.Background(), job(0, 1)); !errors.Is(err, ErrBusy) {
		t.Errorf("Run = %v, want ErrBusy", err)
	}
	if h.encoders != 0 {
		t.Errorf("encoders = %d", h.encoders)
	}
}

func TestLockFileRejects(t *testing.T) {
	h := &harness{}
	p := newPipeline(t, newSession(t, nil), h.backend(), nil)
	other := flock.New(p.opts.LockFile)
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer other.Unlock()

	if _, err := p.Run(context.Background(), job(0, 1)); !errors.Is(err, ErrBusy) {
		t.Errorf("Run = %v, want ErrBusy", err)
	}
	if h.encoders != 0 {
		t.Errorf("encoders = %d", h.encoders)
	}
}

func TestCapabilityUnavailable(t *testing.T) {
	h := &harness{probeErr: video.ErrCapabilityUnavailable}
	p := newPipeline(t, newSession(t, nil), h.backend(), nil)
	_, err := p.Run(context.Background(), job(0, 1))
	if !errors.Is(err, video.ErrCapabilityUnavailable) {
		t.Errorf("Run = %v", err)
	}
	if h.encoders != 0 || p.State() != Failed {
		t.Errorf("encoders = %d, state = %v", h.encoders, p.State())
	}
}

func TestAlphaSkipsBackground(t *testing.T) {
	clip := &stubClip{}
	h := &harness{audioErr: media.ErrNoAudio}
	p := newPipeline(t, newSession(t, clip), h.backend(), nil)

	j := job(0, 1)
	j.Alpha = true
	res, err := p.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if clip.frames != 0 {
		t.Errorf("background painted %d times", clip.frames)
	}
	// only the playback restore may seek
	if len(clip.seeks) > 1 {
		t.Errorf("seeks = %v", clip.seeks)
	}
	if filepath.Ext(res.Output) != ".mov" {
		t.Errorf("output = %q, want .mov", res.Output)
	}
}

func TestOpaqueSeeksEachFrame(t *testing.T) {
	clip := &stubClip{}
	h := &harness{audioErr: media.ErrNoAudio}
	p := newPipeline(t, newSession(t, clip), h.backend(), nil)

	j := job(1, 2)
	if _, err := p.Run(context.Background(), j); err != nil {
		t.Fatal(err)
	}
	if len(clip.seeks) < 25 {
		t.Fatalf("seeks = %d, want at least 25", len(clip.seeks))
	}
	for i := 0; i < 25; i++ {
		if clip.seeks[i] != j.Seconds(i) {
			t.Errorf("seek %d = %g, want %g", i, clip.seeks[i], j.Seconds(i))
		}
	}
	if clip.frames != 25 {
		t.Errorf("background frames = %d, want 25", clip.frames)
	}
}

func TestEncoderFailureAborts(t *testing.T) {
	h := &harness{failAt: 3}
	s := newSession(t, nil)
	s.Seek(0.5)
	before := s.State().Frame
	p := newPipeline(t, s, h.backend(), nil)

	if _, err := p.Run(context.Background(), job(0, 1)); err == nil {
		t.Fatal("Run succeeded")
	}
	if p.State() != Failed {
		t.Errorf("state = %v, want failed", p.State())
	}
	if h.mux.calls != 0 {
		t.Error("muxer ran after failure")
	}
	if !h.enc.closed {
		t.Error("encoder not closed")
	}
	if s.Busy() {
		t.Error("session still busy")
	}
	if got := s.State().Frame; got != before {
		t.Errorf("playhead = %d, want restored %d", got, before)
	}
}

func TestAudioIsSlicedAndChunked(t *testing.T) {
	pcm := media.PCM{Rate: 48000, Channels: 2, Samples: make([]int16, 48000*2*5)}
	h := &harness{pcm: pcm}
	p := newPipeline(t, newSession(t, nil), h.backend(), nil)

	j := job(1, 3)
	j.IncludeAudio = true
	res, err := p.Run(context.Background(), j)
	if err != nil {
		t.Fatal(err)
	}
	if !res.AudioIncluded || h.mux.audio == nil {
		t.Fatal("audio not muxed")
	}
	if h.audio.frames != 96000 {
		t.Errorf("audio frames = %d, want 96000", h.audio.frames)
	}
	if want := (96000 + 4095) / 4096; len(h.audio.stamps) != want {
		t.Errorf("chunks = %d, want %d", len(h.audio.stamps), want)
	}
	for i := 1; i < len(h.audio.stamps); i++ {
		if h.audio.stamps[i] <= h.audio.stamps[i-1] {
			t.Fatalf("chunk %d timestamp %d not after %d", i, h.audio.stamps[i], h.audio.stamps[i-1])
		}
	}
}

func TestAudioFailureDegrades(t *testing.T) {
	h := &harness{audioErr: errors.New("corrupt stream")}
	p := newPipeline(t, newSession(t, nil), h.backend(), nil)

	j := job(0, 1)
	j.IncludeAudio = true
	res, err := p.Run(context.Background(), j)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.AudioIncluded || h.mux.audio != nil {
		t.Error("audio muxed despite extraction failure")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in    string
		alpha bool
		want  string
	}{
		{"a/b.mp4", false, "a/b.mp4"},
		{"a/b.mp4", true, "a/b.mov"},
		{"a/b.MOV", false, "a/b.mp4"},
		{"a/b", true, "a/b.mov"},
		{"", false, "chart.mp4"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.alpha); got != tt.want {
			t.Errorf("OutputPath(%q, %v) = %q, want %q", tt.in, tt.alpha, got, tt.want)
		}
	}
}
