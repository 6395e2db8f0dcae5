package export

import (
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestStillPath(t *testing.T) {
	tests := []struct {
		in    string
		alpha bool
		want  string
	}{
		{"", false, "chart.jpg"},
		{"", true, "chart.png"},
		{"out/frame.png", false, "out/frame.jpg"},
		{"out/frame.JPEG", true, "out/frame.png"},
		{"out/frame", false, "out/frame.jpg"},
	}
	for _, tt := range tests {
		if got := StillPath(tt.in, tt.alpha); got != tt.want {
			t.Errorf("StillPath(%q, %v) = %q, want %q", tt.in, tt.alpha, got, tt.want)
		}
	}
}

func TestStillWritesJPEG(t *testing.T) {
	h := &harness{}
	clip := &stubClip{}
	p := newPipeline(t, newSession(t, clip), h.backend(), nil)
	out := filepath.Join(t.TempDir(), "still")

	path, err := p.Still(context.Background(), StillJob{At: 2.5, Size: image.Pt(384, 216), Output: out})
	if err != nil {
		t.Fatalf("Still failed: %v", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Errorf("path = %q", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 384 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
	if clip.frames != 1 || len(clip.seeks) == 0 || clip.seeks[0] != 2.5 {
		t.Errorf("background frames = %d, seeks = %v", clip.frames, clip.seeks)
	}
	if h.encoders != 0 {
		t.Errorf("still created %d encoders", h.encoders)
	}
}

func TestStillAlphaIsTransparentPNG(t *testing.T) {
	h := &harness{}
	clip := &stubClip{}
	p := newPipeline(t, newSession(t, clip), h.backend(), nil)

	path, err := p.Still(context.Background(), StillJob{At: 0, Size: image.Pt(384, 216), Alpha: true, Output: filepath.Join(t.TempDir(), "a.jpg")})
	if err != nil {
		t.Fatalf("Still failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	if clip.frames != 0 {
		t.Errorf("alpha still requested %d background frames", clip.frames)
	}
}

func TestStillRejectsOutOfRange(t *testing.T) {
	h := &harness{}
	s := newSession(t, nil)
	p := newPipeline(t, s, h.backend(), nil)
	if _, err := p.Still(context.Background(), StillJob{At: 11, Size: image.Pt(384, 216)}); err == nil {
		t.Fatal("expected an error past the timeline end")
	}
	if s.Busy() {
		t.Error("session left busy")
	}
}
