package timeline

import (
	"fmt"
	"math"
)

const (
	// EntryDelay separates the global "in" time from the first category start.
	EntryDelay = 0.5
	// Stagger is the default gap between consecutive category starts.
	Stagger = 0.15
)

// Schedule keeps one start time (seconds from the timeline origin) per
// category. Its length follows the series through explicit Reconcile calls.
type Schedule struct {
	starts  []float64
	graphIn float64
}

// NewSchedule returns a schedule initialised for n categories.
func NewSchedule(n int, graphIn float64) *Schedule {
	s := &Schedule{}
	s.Reinitialize(n, graphIn)
	return s
}

// Restore rebuilds a schedule from stored start times, e.g. a project file.
// The stored entries are kept as-is and then reconciled to n.
func Restore(starts []float64, n int, graphIn float64) *Schedule {
	s := &Schedule{starts: append([]float64(nil), starts...), graphIn: graphIn}
	s.Reconcile(n)
	return s
}

// Reinitialize discards manual placement: entry i starts at
// graphIn + EntryDelay + i*Stagger.
func (s *Schedule) Reinitialize(n int, graphIn float64) {
	s.graphIn = graphIn
	s.starts = make([]float64, max(n, 0))
	for i := range s.starts {
		s.starts[i] = graphIn + EntryDelay + float64(i)*Stagger
	}
}

// Reconcile grows or truncates to n entries without touching existing ones.
// New entries continue the stagger from the previous one.
func (s *Schedule) Reconcile(n int) {
	if n < 0 {
		n = 0
	}
	for len(s.starts) < n {
		next := s.graphIn + EntryDelay
		if k := len(s.starts); k > 0 {
			next = s.starts[k-1] + Stagger
		}
		s.starts = append(s.starts, next)
	}
	s.starts = s.starts[:n]
}

// ShiftAll moves every entry by delta, keeping the relative stagger.
func (s *Schedule) ShiftAll(delta float64) {
	for i := range s.starts {
		s.starts[i] += delta
	}
}

// SetGraphIn records a new global "in" time and shifts all entries by the
// change. It returns the applied delta.
func (s *Schedule) SetGraphIn(graphIn float64) float64 {
	delta := graphIn - s.graphIn
	if delta != 0 && len(s.starts) > 0 {
		s.ShiftAll(delta)
	}
	s.graphIn = graphIn
	return delta
}

// SetEntry places one category manually, clamped to [0, total].
func (s *Schedule) SetEntry(index int, seconds, total float64) (float64, error) {
	if index < 0 || index >= len(s.starts) {
		return 0, fmt.Errorf("schedule: index %d out of range [0,%d)", index, len(s.starts))
	}
	seconds = math.Max(0, math.Min(total, seconds))
	s.starts[index] = seconds
	return seconds, nil
}

// Starts returns a copy of the start times.
func (s *Schedule) Starts() []float64 {
	return append([]float64(nil), s.starts...)
}

// At returns the start of category i, falling back to the default placement
// for indices the schedule does not cover.
func (s *Schedule) At(i int) float64 {
	if i >= 0 && i < len(s.starts) {
		return s.starts[i]
	}
	return s.graphIn + EntryDelay + float64(i)*Stagger
}

func (s *Schedule) Len() int         { return len(s.starts) }
func (s *Schedule) GraphIn() float64 { return s.graphIn }
