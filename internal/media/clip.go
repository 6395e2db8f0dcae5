package media

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"
)

// ErrSeekSuperseded finishes a queued seek replaced by a newer one before
// the decoder got to it.
var ErrSeekSuperseded = errors.New("seek superseded by a newer request")

// Clip is a seekable video background.
type Clip interface {
	Source
	// Seek starts an asynchronous seek. The returned op signals when the
	// position is set and when the frame at that position is decoded.
	Seek(seconds float64) *SeekOp
	Play()
	Pause()
	Playing() bool
	Position() float64
	Ended() bool
	Duration() float64
}

// SeekOp is the awaitable result of Clip.Seek.
type SeekOp struct {
	At float64

	seeked    chan struct{}
	ready     chan struct{}
	seekOnce  sync.Once
	readyOnce sync.Once
	err       error
}

func newSeekOp(at float64) *SeekOp {
	return &SeekOp{At: at, seeked: make(chan struct{}), ready: make(chan struct{})}
}

// Seeked is closed once the decoder is positioned.
func (op *SeekOp) Seeked() <-chan struct{} { return op.seeked }

// Ready is closed once a frame for the position is available.
func (op *SeekOp) Ready() <-chan struct{} { return op.ready }

// Err is valid after Ready is closed.
func (op *SeekOp) Err() error {
	select {
	case <-op.ready:
		return op.err
	default:
		return nil
	}
}

func (op *SeekOp) markSeeked() {
	op.seekOnce.Do(func() { close(op.seeked) })
}

func (op *SeekOp) finish(err error) {
	op.markSeeked()
	op.readyOnce.Do(func() {
		op.err = err
		close(op.ready)
	})
}

// DoneSeek returns an op that has already completed with err, for clips
// that position synchronously.
func DoneSeek(at float64, err error) *SeekOp {
	op := newSeekOp(at)
	op.finish(err)
	return op
}

// decoder is the backend-specific part of a clip. Its methods run on the
// clip's worker goroutine only.
type decoder interface {
	// seek positions the decoder so the next decode yields the frame
	// showing at seconds.
	seek(seconds float64) error
	decode() (*image.RGBA, error)
	close() error
}

type seekReq struct {
	at float64
	op *SeekOp
}

// clip runs a decoder on a worker goroutine and keeps a wall-clock playhead
// for live preview.
type clip struct {
	dec      decoder
	size     image.Point
	duration float64

	// next holds at most one queued request; wake signals the worker.
	qmu     sync.Mutex
	next    *seekReq
	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	pending atomic.Bool
	latest  atomic.Pointer[image.RGBA]

	mu        sync.Mutex
	playing   bool
	ended     bool
	playStart time.Time
	playBase  float64
	now       func() time.Time
}

func newClip(dec decoder, size image.Point, duration float64) *clip {
	ctx, cancel := context.WithCancel(context.Background())
	c := &clip{
		dec:      dec,
		size:     size,
		duration: duration,
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go c.loop()
	return c
}

func (c *clip) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			if req := c.take(); req != nil {
				req.op.finish(context.Canceled)
			}
			return
		case <-c.wake:
			for req := c.take(); req != nil; req = c.take() {
				c.run(req)
			}
		}
	}
}

func (c *clip) run(req *seekReq) {
	err := c.dec.seek(req.at)
	req.op.markSeeked()
	if err == nil {
		var img *image.RGBA
		if img, err = c.dec.decode(); err == nil {
			c.latest.Store(img)
		}
	}
	req.op.finish(err)
	c.pending.Store(false)
}

// post queues req without blocking. A queued request the worker has not
// picked up yet is replaced and finished with ErrSeekSuperseded, unless
// replace is false, in which case post gives up and reports false.
func (c *clip) post(req seekReq, replace bool) bool {
	if c.ctx.Err() != nil {
		req.op.finish(context.Canceled)
		return false
	}
	c.qmu.Lock()
	if c.next != nil {
		if !replace {
			c.qmu.Unlock()
			return false
		}
		c.next.op.finish(ErrSeekSuperseded)
	}
	c.next = &req
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *clip) take() *seekReq {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	req := c.next
	c.next = nil
	return req
}

func (c *clip) Seek(seconds float64) *SeekOp {
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.mu.Lock()
	c.playBase = seconds
	c.playStart = c.now()
	c.ended = false
	c.mu.Unlock()

	op := newSeekOp(seconds)
	c.post(seekReq{at: seconds, op: op}, true)
	return op
}

// Frame returns the most recently decoded frame without blocking. While
// playing it also asks the worker to catch up with the playhead.
func (c *clip) Frame(size image.Point) (*image.RGBA, error) {
	if c.Playing() && c.pending.CompareAndSwap(false, true) {
		pos := c.Position()
		if !c.post(seekReq{at: pos, op: newSeekOp(pos)}, false) {
			c.pending.Store(false)
		}
	}
	img := c.latest.Load()
	if img == nil {
		return image.NewRGBA(image.Rectangle{Max: size}), nil
	}
	if img.Rect.Size() == size {
		return img, nil
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

func (c *clip) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	if c.ended {
		c.playBase = 0
		c.ended = false
	}
	c.playing = true
	c.playStart = c.now()
}

func (c *clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.playBase = c.positionLocked()
	c.playing = false
}

func (c *clip) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *clip) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *clip) positionLocked() float64 {
	pos := c.playBase
	if c.playing {
		pos += c.now().Sub(c.playStart).Seconds()
	}
	if c.duration > 0 && pos >= c.duration {
		c.ended = true
		return c.duration
	}
	return pos
}

func (c *clip) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionLocked()
	return c.ended
}

func (c *clip) Duration() float64 { return c.duration }

func (c *clip) Close() error {
	c.cancel()
	<-c.done
	return c.dec.close()
}
