package session

import (
	"github.com/ivlev/chart2video/internal/animation"
)

// Playback is the preview position saved while an export runs.
type Playback struct {
	Frame   int
	Playing bool
}

// State is a read-only view for control surfaces.
type State struct {
	Frame    int       `json:"frame"`
	Seconds  float64   `json:"seconds"`
	Fraction float64   `json:"fraction"`
	Duration float64   `json:"duration"`
	Playing  bool      `json:"playing"`
	Busy     bool      `json:"busy"`
	GraphIn  float64   `json:"graph_in"`
	GraphOut float64   `json:"graph_out"`
	Easing   string    `json:"easing"`
	Starts   []float64 `json:"starts"`
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
}

// Play starts the preview clock and the background clip.
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy.Load() {
		return
	}
	s.playing = true
	if s.clip != nil {
		s.clip.Play()
	}
}

// Pause stops the preview clock.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	if s.clip != nil {
		s.clip.Pause()
	}
}

// Playing reports whether the preview clock runs.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Seek scrubs to a fraction of the timeline. Ignored during export.
func (s *Session) Seek(fraction float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy.Load() {
		return s.timeline.Frame()
	}
	f := s.timeline.Seek(fraction)
	if s.clip != nil {
		s.clip.Seek(s.timeline.SecondsAtFrame(f))
	}
	return f
}

// Tick advances the preview clock by one display frame and returns the
// state to paint. With a background clip the frame follows the clip's own
// position and wraps to 0 when the clip ends. It never blocks.
func (s *Session) Tick() animation.Frame {
	s.mu.Lock()
	if s.playing && !s.busy.Load() {
		if s.clip != nil {
			if _, restart := s.timeline.AdvanceFromClip(s.clip); restart {
				s.clip.Seek(0)
				s.clip.Play()
			}
		} else {
			s.timeline.Advance()
		}
	}
	t := s.timeline.CurrentSeconds()
	p := s.paramsLocked()
	s.mu.Unlock()
	return animation.Compute(t, p)
}

// State reports the playhead and timing.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Reconcile(s.series.Len())
	return State{
		Frame:    s.timeline.Frame(),
		Seconds:  s.timeline.CurrentSeconds(),
		Fraction: s.timeline.Fraction(),
		Duration: s.timeline.Duration(),
		Playing:  s.playing,
		Busy:     s.busy.Load(),
		GraphIn:  s.schedule.GraphIn(),
		GraphOut: s.graphOut,
		Easing:   s.curve.String(),
		Starts:   s.schedule.Starts(),
		Labels:   append([]string(nil), s.series.Labels...),
		Values:   append([]float64(nil), s.series.Values...),
	}
}

// Begin claims the session for an export. It fails with ErrBusy when
// another export holds it; there is no queue.
func (s *Session) Begin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// End releases the claim taken by Begin.
func (s *Session) End() {
	s.busy.Store(false)
}

// Busy reports whether an export holds the session.
func (s *Session) Busy() bool { return s.busy.Load() }

// Suspend stops playback and returns what Resume needs to restore it.
func (s *Session) Suspend() Playback {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Playback{Frame: s.timeline.Frame(), Playing: s.playing}
	s.playing = false
	if s.clip != nil {
		s.clip.Pause()
	}
	return p
}

// Resume restores a snapshot taken by Suspend.
func (s *Session) Resume(p Playback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.timeline.SetFrame(p.Frame)
	if s.clip != nil {
		s.clip.Seek(s.timeline.SecondsAtFrame(f))
		if p.Playing {
			s.clip.Play()
		}
	}
	s.playing = p.Playing
}
