// Package preview drives the live preview clock and serves it over HTTP as
// an MJPEG stream together with the control endpoints of the editor.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/compositor"
	"github.com/ivlev/chart2video/internal/session"
	"github.com/ivlev/chart2video/internal/system"
	"github.com/ivlev/chart2video/internal/timeline"
)

// Options configure a preview server.
type Options struct {
	Size     image.Point
	Quality  int
	Renderer chart.Renderer
	Logos    compositor.Logos
	// Export starts an export of the current document. It runs on its own
	// goroutine; nil disables the endpoint.
	Export func(ctx context.Context) error
	Logger *log.Logger
}

type frame struct {
	seq  uint64
	jpeg []byte
}

// Server owns its compositor; the session is shared with exports.
type Server struct {
	sess   *session.Session
	comp   *compositor.Compositor
	opts   Options
	logger *log.Logger
	pool   *system.ImagePool
	rev    uint64
	seq    uint64
	latest atomic.Pointer[frame]
	// exporting guards the export endpoint against double starts.
	exporting atomic.Bool

	mu      sync.Mutex
	updated *sync.Cond

	// ctx ends when Run returns; exports started from here share it.
	ctx    context.Context
	cancel context.CancelFunc
}

// New prepares a server for sess.
func New(sess *session.Session, opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("preview needs a chart renderer")
	}
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		opts.Size = image.Pt(960, 540)
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	comp, err := compositor.New(opts.Size, opts.Renderer, opts.Logos)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{sess: sess, comp: comp, opts: opts, logger: logger, pool: system.NewImagePool()}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.updated = sync.NewCond(&s.mu)
	return s, nil
}

// Step advances the clock by one display frame and publishes the picture.
func (s *Server) Step() error {
	if rev := s.sess.Revision(); rev != s.rev {
		if err := s.comp.SetContent(s.sess.Content()); err != nil {
			return fmt.Errorf("configure chart: %w", err)
		}
		s.rev = rev
	}
	f := s.sess.Tick()

	img := s.pool.GetClear(s.opts.Size)
	defer s.pool.Put(img)
	if err := s.comp.ComposeInto(img, s.sess.Background(), f, false); err != nil {
		// keep the stream alive with the degraded frame
		img = s.comp.Compose(s.sess.Background(), f, false)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.opts.Quality}); err != nil {
		return fmt.Errorf("jpeg: %w", err)
	}
	s.seq++
	s.latest.Store(&frame{seq: s.seq, jpeg: buf.Bytes()})

	s.mu.Lock()
	s.updated.Broadcast()
	s.mu.Unlock()
	return nil
}

// Run ticks at timeline.PreviewFPS until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / timeline.PreviewFPS)
	defer ticker.Stop()
	defer func() {
		s.cancel()
		s.mu.Lock()
		s.updated.Broadcast()
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Step(); err != nil {
				s.logger.Printf("[!] Превью: %v", err)
			}
		}
	}
}

// ListenAndServe runs the clock and the HTTP server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:               s.Handler,
		Name:                  "chart2video",
		NoDefaultServerHeader: true,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	go s.Run(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return srv.Shutdown()
	}
}

// wait blocks until a frame newer than seq exists or the clock stops.
func (s *Server) wait(seq uint64) *frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if f := s.latest.Load(); f != nil && f.seq > seq {
			return f
		}
		if s.ctx.Err() != nil {
			return nil
		}
		s.updated.Wait()
	}
}
