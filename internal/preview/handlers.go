package preview

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/ivlev/chart2video/internal/session"
)

const boundary = "chart2videoframe"

// Handler routes the preview endpoints:
//
//	GET  /stream.mjpg                 live MJPEG stream
//	GET  /frame.jpg                   latest frame
//	GET  /state                       playhead and timing as JSON
//	POST /play, /pause
//	POST /seek?fraction=0.5
//	POST /easing?value=0,0.9,0.3,1    400 keeps the old curve
//	POST /graph-in?seconds=, /graph-out?seconds=
//	POST /bar?index=2&seconds=3.1
//	POST /series?labels=&values=
//	POST /kind?name=bar-horizontal
//	POST /highlight?index=5
//	POST /control-point?point=1&x=0&y=0.9
//	POST /reset-schedule
//	POST /export                      409 while an export runs
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	get := ctx.IsGet() || ctx.IsHead()
	post := ctx.IsPost()

	switch {
	case path == "/stream.mjpg" && get:
		s.stream(ctx)
	case path == "/frame.jpg" && get:
		s.still(ctx)
	case path == "/state" && get:
		s.state(ctx)
	case path == "/play" && post:
		s.sess.Play()
		s.state(ctx)
	case path == "/pause" && post:
		s.sess.Pause()
		s.state(ctx)
	case path == "/seek" && post:
		v, ok := floatArg(ctx, "fraction")
		if !ok {
			return
		}
		s.sess.Seek(v)
		s.state(ctx)
	case path == "/easing" && post:
		text := string(ctx.FormValue("value"))
		if text == "" {
			text = string(ctx.PostBody())
		}
		if !s.sess.SetEasing(text) {
			ctx.Error(fmt.Sprintf("invalid easing %q, keeping %s", text, s.sess.Curve()), fasthttp.StatusBadRequest)
			return
		}
		s.state(ctx)
	case path == "/graph-in" && post:
		v, ok := floatArg(ctx, "seconds")
		if !ok {
			return
		}
		s.sess.SetGraphIn(v)
		s.state(ctx)
	case path == "/graph-out" && post:
		v, ok := floatArg(ctx, "seconds")
		if !ok {
			return
		}
		s.sess.SetGraphOut(v)
		s.state(ctx)
	case path == "/bar" && post:
		i, err := strconv.Atoi(string(ctx.FormValue("index")))
		if err != nil {
			ctx.Error("index must be an integer", fasthttp.StatusBadRequest)
			return
		}
		v, ok := floatArg(ctx, "seconds")
		if !ok {
			return
		}
		if _, err := s.sess.SetBarStart(i, v); err != nil {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		s.state(ctx)
	case path == "/series" && post:
		s.sess.SetSeries(string(ctx.FormValue("labels")), string(ctx.FormValue("values")))
		s.state(ctx)
	case path == "/kind" && post:
		if err := s.sess.SetKind(string(ctx.FormValue("name"))); err != nil {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		s.state(ctx)
	case path == "/highlight" && post:
		i, err := strconv.Atoi(string(ctx.FormValue("index")))
		if err == nil {
			err = s.sess.ToggleHighlight(i)
		}
		if err != nil {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		s.state(ctx)
	case path == "/control-point" && post:
		point, err := strconv.Atoi(string(ctx.FormValue("point")))
		if err != nil {
			ctx.Error("point must be 1 or 2", fasthttp.StatusBadRequest)
			return
		}
		x, ok := floatArg(ctx, "x")
		if !ok {
			return
		}
		y, ok := floatArg(ctx, "y")
		if !ok {
			return
		}
		if err := s.sess.DragControlPoint(point, x, y); err != nil {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		s.state(ctx)
	case path == "/reset-schedule" && post:
		s.sess.ResetSchedule()
		s.state(ctx)
	case path == "/export" && post:
		s.export(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func floatArg(ctx *fasthttp.RequestCtx, name string) (float64, bool) {
	v, err := strconv.ParseFloat(string(ctx.FormValue(name)), 64)
	if err != nil {
		ctx.Error(fmt.Sprintf("%s must be a number", name), fasthttp.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func (s *Server) state(ctx *fasthttp.RequestCtx) {
	body, err := json.Marshal(s.sess.State())
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func (s *Server) still(ctx *fasthttp.RequestCtx) {
	f := s.latest.Load()
	if f == nil {
		ctx.Error("no frame yet", fasthttp.StatusServiceUnavailable)
		return
	}
	ctx.SetContentType("image/jpeg")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(f.jpeg)
}

func (s *Server) stream(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("multipart/x-mixed-replace; boundary=" + boundary)
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		var seq uint64
		for {
			f := s.wait(seq)
			if f == nil {
				return
			}
			seq = f.seq
			fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(f.jpeg))
			w.Write(f.jpeg)
			w.WriteString("\r\n")
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
	})
}

func (s *Server) export(ctx *fasthttp.RequestCtx) {
	if s.opts.Export == nil {
		ctx.Error("export disabled", fasthttp.StatusNotImplemented)
		return
	}
	if s.sess.Busy() || !s.exporting.CompareAndSwap(false, true) {
		ctx.Error(session.ErrBusy.Error(), fasthttp.StatusConflict)
		return
	}
	go func() {
		defer s.exporting.Store(false)
		if err := s.opts.Export(s.ctx); err != nil {
			if errors.Is(err, session.ErrBusy) {
				s.logger.Printf("[!] Экспорт отклонен: %v", err)
				return
			}
			s.logger.Printf("[-] Экспорт не удался: %v", err)
		}
	}()
	s.state(ctx)
	ctx.SetStatusCode(fasthttp.StatusAccepted)
}
