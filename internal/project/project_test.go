package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/easing"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphic.yaml")

	doc := New()
	doc.Title = "Peiling"
	doc.Chart.Kind = "bar-horizontal"
	doc.Timing.Easing = easing.New(0.25, 0.1, 0.25, 1)
	doc.Timing.Starts = []float64{1.5, 1.65, 1.8}
	doc.Style.Highlighted = []int{0, 2}
	doc.Media.Background = "studio.jpg"

	if err := Write(doc, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Title != "Peiling" || got.Chart.Kind != "bar-horizontal" {
		t.Errorf("texts not preserved: %+v", got)
	}
	if got.Timing.Easing != doc.Timing.Easing {
		t.Errorf("easing = %v, want %v", got.Timing.Easing, doc.Timing.Easing)
	}
	if len(got.Timing.Starts) != 3 || got.Timing.Starts[1] != 1.65 {
		t.Errorf("starts = %v", got.Timing.Starts)
	}
	if len(got.Style.Highlighted) != 2 || got.Style.Highlighted[1] != 2 {
		t.Errorf("highlighted = %v", got.Style.Highlighted)
	}
	if got.Style.Primary != doc.Style.Primary {
		t.Errorf("primary = %v, want %v", got.Style.Primary, doc.Style.Primary)
	}
	if want := filepath.Join(dir, "studio.jpg"); got.Path(got.Media.Background) != want {
		t.Errorf("Path = %q, want %q", got.Path(got.Media.Background), want)
	}
}

func TestReadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	if err := os.WriteFile(path, []byte("title: Kort\nchart:\n  labels: X, Y\n  values: 1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if doc.Timing.Duration != DefaultDuration {
		t.Errorf("duration = %g, want %g", doc.Timing.Duration, DefaultDuration)
	}
	if doc.Timing.Easing != easing.Default {
		t.Errorf("easing = %v, want default", doc.Timing.Easing)
	}
	if doc.Style.PanelWidth != chart.DefaultPanelWidth {
		t.Errorf("panel width = %g", doc.Style.PanelWidth)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		ok     bool
	}{
		{"stock", func(*Document) {}, true},
		{"unknown kind", func(d *Document) { d.Chart.Kind = "pie" }, false},
		{"zero duration", func(d *Document) { d.Timing.Duration = 0 }, false},
		{"graph in past end", func(d *Document) { d.Timing.GraphIn = 11 }, false},
		{"no labels", func(d *Document) { d.Chart.Labels = " , " }, false},
		{"panel too wide", func(d *Document) { d.Style.PanelWidth = 120 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New()
			tt.mutate(doc)
			err := doc.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}

func TestKindGeometry(t *testing.T) {
	doc := New()
	doc.Chart.BarWidth = 0.6
	doc.Chart.CornerRadius = 4
	k, err := doc.Kind()
	if err != nil {
		t.Fatal(err)
	}
	b, ok := k.(chart.Bar)
	if !ok || b.Width != 0.6 || b.CornerRadius != 4 {
		t.Errorf("Kind() = %#v", k)
	}
}

func TestJobUsesConfigDefaults(t *testing.T) {
	cfg := config.Default()
	doc := New()
	doc.Export = Range{Start: 0, End: 2, Audio: true}

	job := doc.Job(&cfg)
	if job.FPS != config.DefaultFPS || job.Width != config.DefaultWidth {
		t.Errorf("job = %+v", job)
	}
	if job.FrameCount() != 50 {
		t.Errorf("FrameCount = %d, want 50", job.FrameCount())
	}

	doc.Export.FPS, doc.Export.Width, doc.Export.Height = 50, 1280, 720
	job = doc.Job(&cfg)
	if job.FPS != 50 || job.Size().X != 1280 {
		t.Errorf("overrides ignored: %+v", job)
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "a.yaml")
	fresh := filepath.Join(dir, "b.yml")
	for _, p := range []string{old, fresh, filepath.Join(dir, "c.txt")} {
		if err := os.WriteFile(p, []byte("title: x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	got, err := FindLatest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != fresh {
		t.Errorf("FindLatest = %q, want %q", got, fresh)
	}
}
