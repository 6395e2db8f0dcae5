package timeline

import (
	"math"
	"testing"
)

func TestFrameSecondsRoundTrip(t *testing.T) {
	for _, dur := range []float64{20, 7.3, 0.5, 123.45} {
		tl, err := New(dur)
		if err != nil {
			t.Fatal(err)
		}
		for f := 0; f < tl.TotalFrames(); f++ {
			if got := tl.FrameAtSeconds(tl.SecondsAtFrame(f)); got != f {
				t.Fatalf("duration %.2f: FrameAtSeconds(SecondsAtFrame(%d)) = %d", dur, f, got)
			}
		}
	}
}

func TestTotalFrames(t *testing.T) {
	tl, _ := New(20)
	if got := tl.TotalFrames(); got != 1200 {
		t.Errorf("TotalFrames = %d, want 1200", got)
	}
	tl, _ = New(0.001)
	if got := tl.TotalFrames(); got != 1 {
		t.Errorf("TotalFrames for tiny duration = %d, want 1", got)
	}
}

func TestNewRejectsNonPositive(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := New(d); err == nil {
			t.Errorf("New(%v) accepted", d)
		}
	}
}

func TestAdvanceWraps(t *testing.T) {
	tl, _ := New(1)
	tl.SetFrame(59)
	if got := tl.Advance(); got != 0 {
		t.Errorf("Advance from last frame = %d, want 0", got)
	}
	if got := tl.Advance(); got != 1 {
		t.Errorf("Advance = %d, want 1", got)
	}
}

func TestSeekClamps(t *testing.T) {
	tl, _ := New(10)
	tests := []struct {
		fraction float64
		want     int
	}{
		{0, 0},
		{0.5, 300},
		{1, 599},
		{1.7, 599},
		{-3, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := tl.Seek(tt.fraction); got != tt.want {
			t.Errorf("Seek(%v) = %d, want %d", tt.fraction, got, tt.want)
		}
	}
}

type fakePlayhead struct {
	pos   float64
	ended bool
}

func (f fakePlayhead) Position() float64 { return f.pos }
func (f fakePlayhead) Ended() bool       { return f.ended }

func TestAdvanceFromClip(t *testing.T) {
	tl, _ := New(10)

	frame, restart := tl.AdvanceFromClip(fakePlayhead{pos: 2.5})
	if restart || frame != 150 {
		t.Errorf("got frame %d restart %v, want 150 false", frame, restart)
	}

	frame, restart = tl.AdvanceFromClip(fakePlayhead{pos: 9.9, ended: true})
	if !restart || frame != 0 {
		t.Errorf("ended clip: got frame %d restart %v", frame, restart)
	}

	frame, restart = tl.AdvanceFromClip(fakePlayhead{pos: 10.2})
	if !restart || frame != 0 {
		t.Errorf("overrun clip: got frame %d restart %v", frame, restart)
	}
}
