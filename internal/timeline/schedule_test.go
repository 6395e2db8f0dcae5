package timeline

import (
	"math"
	"testing"
)

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestReinitialize(t *testing.T) {
	s := NewSchedule(3, 1)
	want := []float64{1.5, 1.65, 1.8}
	if !almostEqual(s.Starts(), want) {
		t.Errorf("starts = %v, want %v", s.Starts(), want)
	}
}

func TestReconcileGrowsAndTruncates(t *testing.T) {
	s := NewSchedule(2, 1)
	s.SetEntry(1, 4, 20)

	s.Reconcile(4)
	want := []float64{1.5, 4, 4.15, 4.3}
	if !almostEqual(s.Starts(), want) {
		t.Errorf("grown = %v, want %v", s.Starts(), want)
	}

	s.Reconcile(1)
	if !almostEqual(s.Starts(), []float64{1.5}) {
		t.Errorf("truncated = %v", s.Starts())
	}

	empty := NewSchedule(0, 2)
	empty.Reconcile(1)
	if !almostEqual(empty.Starts(), []float64{2.5}) {
		t.Errorf("from empty = %v, want [2.5]", empty.Starts())
	}
}

func TestReconcileIdempotent(t *testing.T) {
	for _, n := range []int{0, 1, 5, 30} {
		s := NewSchedule(3, 1)
		s.SetEntry(0, 7, 20)
		s.Reconcile(n)
		once := s.Starts()
		s.Reconcile(n)
		if !almostEqual(once, s.Starts()) {
			t.Errorf("n=%d: second Reconcile changed %v to %v", n, once, s.Starts())
		}
	}
}

func TestShiftAllRoundTrip(t *testing.T) {
	s := NewSchedule(5, 1)
	s.SetEntry(2, 9.3, 20)
	orig := s.Starts()
	for _, d := range []float64{0.1, -2.75, 13.001} {
		s.ShiftAll(d)
		s.ShiftAll(-d)
		if !almostEqual(orig, s.Starts()) {
			t.Errorf("shift %v: got %v, want %v", d, s.Starts(), orig)
		}
	}
}

func TestSetGraphInShiftsEntries(t *testing.T) {
	s := NewSchedule(3, 1)
	s.SetEntry(1, 5, 20)
	if d := s.SetGraphIn(3); d != 2 {
		t.Errorf("delta = %v, want 2", d)
	}
	want := []float64{3.5, 7, 3.8}
	if !almostEqual(s.Starts(), want) {
		t.Errorf("starts = %v, want %v", s.Starts(), want)
	}
	if s.GraphIn() != 3 {
		t.Errorf("GraphIn = %v", s.GraphIn())
	}
}

func TestSetEntryClamps(t *testing.T) {
	s := NewSchedule(2, 1)
	if got, _ := s.SetEntry(0, -4, 20); got != 0 {
		t.Errorf("clamped low = %v", got)
	}
	if got, _ := s.SetEntry(1, 25, 20); got != 20 {
		t.Errorf("clamped high = %v", got)
	}
	if _, err := s.SetEntry(2, 1, 20); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestRestoreKeepsStoredEntries(t *testing.T) {
	s := Restore([]float64{2, 6}, 3, 1)
	want := []float64{2, 6, 6.15}
	if !almostEqual(s.Starts(), want) {
		t.Errorf("restored = %v, want %v", s.Starts(), want)
	}
	if got := s.At(10); math.Abs(got-(1+EntryDelay+10*Stagger)) > 1e-9 {
		t.Errorf("At beyond range = %v", got)
	}
}
