package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"log"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/session"
)

type stubRenderer struct{}

func (stubRenderer) Configure(chart.Kind, chart.Series, chart.Style) error { return nil }
func (stubRenderer) Render(*image.RGBA, []float64, float64) error          { return nil }
func (stubRenderer) CategoryPosition(int) (image.Point, error)             { return image.Point{}, nil }
func (stubRenderer) LayoutArea() image.Rectangle                           { return image.Rectangle{} }

func newServer(t *testing.T, export func(context.Context) error) (*Server, *session.Session) {
	t.Helper()
	doc := project.New()
	doc.Chart.Labels = "A, B, C"
	doc.Chart.Values = "10, 20, 5"
	sess, err := session.New(doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(sess, Options{
		Size:     image.Pt(192, 108),
		Renderer: stubRenderer{},
		Export:   export,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv, sess
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.Handler(&ctx)
	return &ctx
}

func decodeState(t *testing.T, ctx *fasthttp.RequestCtx) session.State {
	t.Helper()
	var st session.State
	if err := json.Unmarshal(ctx.Response.Body(), &st); err != nil {
		t.Fatalf("decode state %q: %v", ctx.Response.Body(), err)
	}
	return st
}

func TestFrameEndpoint(t *testing.T) {
	srv, _ := newServer(t, nil)
	if got := do(srv, "GET", "/frame.jpg", "").Response.StatusCode(); got != fasthttp.StatusServiceUnavailable {
		t.Errorf("before first step: %d", got)
	}
	if err := srv.Step(); err != nil {
		t.Fatal(err)
	}
	ctx := do(srv, "GET", "/frame.jpg", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	img, err := jpeg.Decode(bytes.NewReader(ctx.Response.Body()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Size() != image.Pt(192, 108) {
		t.Errorf("size = %v", img.Bounds().Size())
	}
}

func TestPlaybackControls(t *testing.T) {
	srv, _ := newServer(t, nil)

	st := decodeState(t, do(srv, "POST", "/seek?fraction=0.5", ""))
	if st.Fraction != 0.5 {
		t.Errorf("fraction = %g, want 0.5", st.Fraction)
	}
	if st := decodeState(t, do(srv, "POST", "/play", "")); !st.Playing {
		t.Error("not playing after /play")
	}
	srv.Step()
	if st := decodeState(t, do(srv, "GET", "/state", "")); st.Frame != 301 {
		t.Errorf("frame = %d, want 301", st.Frame)
	}
	if st := decodeState(t, do(srv, "POST", "/pause", "")); st.Playing {
		t.Error("still playing after /pause")
	}
}

func TestEasingEndpoint(t *testing.T) {
	srv, sess := newServer(t, nil)
	before := sess.Curve()

	if got := do(srv, "POST", "/easing?value=1,2,3", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("malformed easing status = %d", got)
	}
	if sess.Curve() != before {
		t.Error("curve changed after malformed input")
	}

	st := decodeState(t, do(srv, "POST", "/easing", "0.25, 0.1, 0.25, 1"))
	if st.Easing != "0.25, 0.10, 0.25, 1.00" {
		t.Errorf("easing = %q", st.Easing)
	}
}

func TestTimingEndpoints(t *testing.T) {
	srv, _ := newServer(t, nil)

	st := decodeState(t, do(srv, "POST", "/graph-in?seconds=2", ""))
	if st.GraphIn != 2 || st.Starts[0] != 2.5 {
		t.Errorf("graph in = %g, starts = %v", st.GraphIn, st.Starts)
	}
	st = decodeState(t, do(srv, "POST", "/bar?index=1&seconds=4", ""))
	if st.Starts[1] != 4 {
		t.Errorf("starts = %v", st.Starts)
	}
	if got := do(srv, "POST", "/bar?index=9&seconds=4", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("out of range bar status = %d", got)
	}
	if got := do(srv, "POST", "/seek?fraction=abc", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("bad fraction status = %d", got)
	}
	st = decodeState(t, do(srv, "POST", "/series?labels=X,Y&values=1,2", ""))
	if len(st.Starts) != 2 || len(st.Labels) != 2 {
		t.Errorf("series not applied: %+v", st)
	}
}

func TestExportConflict(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv, sess := newServer(t, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	if got := do(srv, "POST", "/export", "").Response.StatusCode(); got != fasthttp.StatusAccepted {
		t.Fatalf("first export status = %d", got)
	}
	<-started
	if got := do(srv, "POST", "/export", "").Response.StatusCode(); got != fasthttp.StatusConflict {
		t.Errorf("second export status = %d, want 409", got)
	}
	close(release)

	deadline := time.Now().Add(time.Second)
	for srv.exporting.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := sess.Begin(); err != nil {
		t.Fatal(err)
	}
	defer sess.End()
	if got := do(srv, "POST", "/export", "").Response.StatusCode(); got != fasthttp.StatusConflict {
		t.Errorf("export while session busy = %d, want 409", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newServer(t, nil)
	if got := do(srv, "GET", "/play", "").Response.StatusCode(); got != fasthttp.StatusNotFound {
		t.Errorf("GET /play = %d, want 404", got)
	}
}

func TestEditEndpoints(t *testing.T) {
	srv, sess := newServer(t, nil)

	rev := sess.Revision()
	if got := do(srv, "POST", "/kind?name=line", "").Response.StatusCode(); got != fasthttp.StatusOK {
		t.Errorf("kind status = %d", got)
	}
	if sess.Revision() == rev {
		t.Error("kind change did not bump the revision")
	}
	if got := do(srv, "POST", "/kind?name=pie", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("unknown kind status = %d", got)
	}
	if got := do(srv, "POST", "/highlight?index=1", "").Response.StatusCode(); got != fasthttp.StatusOK {
		t.Errorf("highlight status = %d", got)
	}
	if got := do(srv, "POST", "/highlight?index=7", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("out of range highlight status = %d", got)
	}

	st := decodeState(t, do(srv, "POST", "/control-point?point=2&x=1.5&y=1.2", ""))
	if st.Easing != "0.00, 0.90, 1.00, 1.20" {
		t.Errorf("easing = %q", st.Easing)
	}
	if got := do(srv, "POST", "/control-point?point=3&x=0&y=0", "").Response.StatusCode(); got != fasthttp.StatusBadRequest {
		t.Errorf("bad point status = %d", got)
	}

	do(srv, "POST", "/bar?index=0&seconds=6", "")
	st = decodeState(t, do(srv, "POST", "/reset-schedule", ""))
	if st.Starts[0] != 1.5 {
		t.Errorf("starts after reset = %v", st.Starts)
	}
}
