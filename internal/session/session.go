// Package session holds the live state of one open graphic: its clock,
// easing curve, category schedule, background and the export busy flag.
// Preview and export receive the session instead of reaching for globals.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ivlev/chart2video/internal/animation"
	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/compositor"
	"github.com/ivlev/chart2video/internal/easing"
	"github.com/ivlev/chart2video/internal/media"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/timeline"
)

// ErrBusy is returned while an export holds the session.
var ErrBusy = errors.New("an export is already running")

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	doc      *project.Document
	kind     chart.Kind
	series   chart.Series
	timeline *timeline.Timeline
	curve    easing.Curve
	schedule *timeline.Schedule
	graphOut float64

	bg      media.Source
	clip    media.Clip
	playing bool
	// revision changes whenever anything a compositor caches changes.
	revision uint64

	busy atomic.Bool
}

// New builds a session for doc. bg may be nil for the default gradient; the
// session takes ownership of it.
func New(doc *project.Document, bg media.Source) (*Session, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	kind, err := doc.Kind()
	if err != nil {
		return nil, err
	}
	if bg == nil {
		bg = media.Gradient{}
	}

	duration := doc.Timing.Duration
	clip, _ := bg.(media.Clip)
	if clip != nil && clip.Duration() > 0 {
		duration = clip.Duration()
	}
	tl, err := timeline.New(duration)
	if err != nil {
		return nil, err
	}

	series := doc.Series()
	s := &Session{
		doc:      doc,
		kind:     kind,
		series:   series,
		timeline: tl,
		curve:    doc.Timing.Easing,
		graphOut: doc.Timing.GraphOut,
		bg:       bg,
		clip:     clip,
		revision: 1,
	}
	if len(doc.Timing.Starts) > 0 {
		s.schedule = timeline.Restore(doc.Timing.Starts, series.Len(), doc.Timing.GraphIn)
	} else {
		s.schedule = timeline.NewSchedule(series.Len(), doc.Timing.GraphIn)
	}
	return s, nil
}

// Close releases the background.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bg == nil {
		return nil
	}
	err := s.bg.Close()
	s.bg, s.clip = nil, nil
	return err
}

// Document returns the project with the live timing folded back in.
func (s *Session) Document() *project.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Timing.GraphIn = s.schedule.GraphIn()
	s.doc.Timing.GraphOut = s.graphOut
	s.doc.Timing.Easing = s.curve
	s.doc.Timing.Starts = s.schedule.Starts()
	return s.doc
}

// Background is the layer behind the panel.
func (s *Session) Background() media.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bg
}

// Clip is the background as a seekable clip, or nil for stills.
func (s *Session) Clip() media.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// AudioSource is the file to take the soundtrack from: the background clip
// when there is one, else the document soundtrack. Empty means silence.
func (s *Session) AudioSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip != nil && s.doc.Media.Background != "" {
		return s.doc.Path(s.doc.Media.Background)
	}
	return s.doc.Path(s.doc.Media.Soundtrack)
}

// Duration of the timeline in seconds.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Duration()
}

// Revision identifies the current content; it changes on every edit that
// affects what SetContent would receive.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Content is the static part of the graphic for a compositor.
func (s *Session) Content() compositor.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return compositor.Content{
		Title:     s.doc.Title,
		Subtitle:  s.doc.Subtitle,
		Source:    s.doc.Source,
		SourceURL: s.doc.SourceURL,
		Kind:      s.kind,
		Series:    chart.Series{Labels: append([]string(nil), s.series.Labels...), Values: append([]float64(nil), s.series.Values...)},
		Style:     s.doc.Style,
	}
}

// Params snapshots the animation inputs with the schedule reconciled.
func (s *Session) Params() animation.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paramsLocked()
}

func (s *Session) paramsLocked() animation.Params {
	s.schedule.Reconcile(s.series.Len())
	return animation.Params{
		GraphIn:  s.schedule.GraphIn(),
		GraphOut: s.graphOut,
		Curve:    s.curve,
		Starts:   s.schedule.Starts(),
		Values:   append([]float64(nil), s.series.Values...),
	}
}

// FrameAt computes the animation state at t seconds.
func (s *Session) FrameAt(t float64) animation.Frame {
	return animation.Compute(t, s.Params())
}

// SetSeries replaces the chart data from the editor text fields. Existing
// category starts are kept and the schedule follows the new length.
func (s *Session) SetSeries(labels, values string) chart.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Chart.Labels, s.doc.Chart.Values = labels, values
	s.series = s.doc.Series()
	s.schedule.Reconcile(s.series.Len())
	s.revision++
	return s.series
}

// SetKind switches between bar and line variants.
func (s *Session) SetKind(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.Chart.Kind
	s.doc.Chart.Kind = name
	kind, err := s.doc.Kind()
	if err != nil {
		s.doc.Chart.Kind = prev
		return err
	}
	s.kind = kind
	s.revision++
	return nil
}

// ToggleHighlight flips the highlight of category i.
func (s *Session) ToggleHighlight(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.series.Len() {
		return fmt.Errorf("category %d out of range [0,%d)", i, s.series.Len())
	}
	s.doc.Style.ToggleHighlight(i)
	s.revision++
	return nil
}

// SetEasing applies the textual curve. On a parse error the current curve
// stays and false is returned.
func (s *Session) SetEasing(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curve.Apply(text)
}

// DragControlPoint moves control point 1 or 2 of the easing curve.
func (s *Session) DragControlPoint(point int, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curve.DragPoint(point, x, y)
}

// Curve is the current easing curve.
func (s *Session) Curve() easing.Curve {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curve
}

// SetGraphIn moves the global "in" time; placed categories move with it.
func (s *Session) SetGraphIn(seconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seconds = clamp(seconds, 0, s.timeline.Duration())
	s.schedule.SetGraphIn(seconds)
	return seconds
}

// SetGraphOut moves the global "out" time.
func (s *Session) SetGraphOut(seconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphOut = clamp(seconds, 0, s.timeline.Duration())
	return s.graphOut
}

// ResetSchedule discards manual placement and restores the default stagger.
func (s *Session) ResetSchedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Reinitialize(s.series.Len(), s.schedule.GraphIn())
}

// SetBarStart places category i by hand.
func (s *Session) SetBarStart(i int, seconds float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Reconcile(s.series.Len())
	return s.schedule.SetEntry(i, seconds, s.timeline.Duration())
}

// Starts is the reconciled schedule.
func (s *Session) Starts() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Reconcile(s.series.Len())
	return s.schedule.Starts()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
