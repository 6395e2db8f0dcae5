// Package timeline holds the logical clock of a graphic and the per-category
// start schedule that drives the staggered reveal.
package timeline

import (
	"fmt"
	"math"
)

// PreviewFPS is the fixed rate of the live preview clock.
const PreviewFPS = 60

// Playhead is a background clip as seen by the preview clock.
type Playhead interface {
	Position() float64
	Ended() bool
}

// Timeline converts between frame indices and seconds and steps playback.
type Timeline struct {
	currentFrame  int
	totalDuration float64
	fps           int
}

// New creates a timeline of the given length in seconds at PreviewFPS.
func New(totalDuration float64) (*Timeline, error) {
	tl := &Timeline{fps: PreviewFPS}
	if err := tl.SetDuration(totalDuration); err != nil {
		return nil, err
	}
	return tl, nil
}

// SetDuration changes the total length, e.g. when a background clip reports its
// natural duration. The current frame is reset to 0.
func (t *Timeline) SetDuration(seconds float64) error {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return fmt.Errorf("timeline: duration must be positive, got %v", seconds)
	}
	t.totalDuration = seconds
	t.currentFrame = 0
	return nil
}

func (t *Timeline) Duration() float64 { return t.totalDuration }
func (t *Timeline) FPS() int          { return t.fps }
func (t *Timeline) Frame() int        { return t.currentFrame }

// TotalFrames is floor(duration*fps), never less than one.
func (t *Timeline) TotalFrames() int {
	n := int(math.Floor(t.totalDuration * float64(t.fps)))
	if n < 1 {
		return 1
	}
	return n
}

// SecondsAtFrame returns the elapsed time at the start of frame f.
func (t *Timeline) SecondsAtFrame(frame int) float64 {
	return float64(frame) / float64(t.fps)
}

// FrameAtSeconds returns the frame that contains the given instant, clamped to
// the valid range.
func (t *Timeline) FrameAtSeconds(seconds float64) int {
	// epsilon absorbs f/fps*fps landing just below an integer
	f := int(math.Floor(seconds*float64(t.fps) + 1e-9))
	return t.clamp(f)
}

// CurrentSeconds is SecondsAtFrame(Frame()).
func (t *Timeline) CurrentSeconds() float64 {
	return t.SecondsAtFrame(t.currentFrame)
}

// SetFrame positions the playhead, clamping like scrubbing does.
func (t *Timeline) SetFrame(frame int) int {
	t.currentFrame = t.clamp(frame)
	return t.currentFrame
}

// Advance steps one frame, wrapping to 0 after the last frame.
func (t *Timeline) Advance() int {
	t.currentFrame = (t.currentFrame + 1) % t.TotalFrames()
	return t.currentFrame
}

// AdvanceFromClip derives the frame from the clip's own playback position.
// When the clip has finished or ran past the timeline, the frame resets to 0
// and restart reports that the caller must rewind the clip.
func (t *Timeline) AdvanceFromClip(clip Playhead) (frame int, restart bool) {
	pos := clip.Position()
	if clip.Ended() || pos >= t.totalDuration {
		t.currentFrame = 0
		return 0, true
	}
	t.currentFrame = t.clamp(int(math.Floor(pos / t.totalDuration * float64(t.TotalFrames()))))
	return t.currentFrame, false
}

// Seek jumps to a fraction of the total length.
func (t *Timeline) Seek(fraction float64) int {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	return t.SetFrame(int(math.Floor(fraction * float64(t.TotalFrames()))))
}

// Fraction is the playhead position as a fraction of the total frames.
func (t *Timeline) Fraction() float64 {
	return float64(t.currentFrame) / float64(t.TotalFrames())
}

func (t *Timeline) clamp(f int) int {
	if f < 0 {
		return 0
	}
	if last := t.TotalFrames() - 1; f > last {
		return last
	}
	return f
}
