// Package project reads and writes the YAML document describing one graphic:
// texts, data, style, timing, media and the export range.
package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/easing"
)

// Version of the document format written by this package.
const Version = "1.0"

// DefaultDuration is the timeline length of a new project.
const DefaultDuration = 10.0

// Document is a complete graphic.
type Document struct {
	Version string `yaml:"version"`

	Title     string `yaml:"title"`
	Subtitle  string `yaml:"subtitle,omitempty"`
	Source    string `yaml:"source,omitempty"`
	SourceURL string `yaml:"source_url,omitempty"`

	Chart  Chart       `yaml:"chart"`
	Style  chart.Style `yaml:"style"`
	Timing Timing      `yaml:"timing"`
	Media  Media       `yaml:"media"`
	Export Range       `yaml:"export"`

	// dir resolves relative media paths.
	dir string
}

// Chart holds the data as typed in the editor: comma separated text.
type Chart struct {
	Kind         string  `yaml:"kind"`
	Labels       string  `yaml:"labels"`
	Values       string  `yaml:"values"`
	BarWidth     float64 `yaml:"bar_width,omitempty"`
	CornerRadius float64 `yaml:"corner_radius,omitempty"`
}

// Timing is the animation schedule.
type Timing struct {
	Duration float64      `yaml:"duration"`
	GraphIn  float64      `yaml:"graph_in"`
	GraphOut float64      `yaml:"graph_out"`
	Easing   easing.Curve `yaml:"easing"`
	// Starts are manual per-category start times; empty means the default stagger.
	Starts []float64 `yaml:"starts,omitempty"`
}

// Media references files next to the document.
type Media struct {
	Background string `yaml:"background,omitempty"`
	Soundtrack string `yaml:"soundtrack,omitempty"`
	Logos      string `yaml:"logos,omitempty"`
}

// Range is the part of the timeline to export.
type Range struct {
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	FPS    float64 `yaml:"fps,omitempty"`
	Width  int     `yaml:"width,omitempty"`
	Height int     `yaml:"height,omitempty"`
	Audio  bool    `yaml:"audio"`
	Alpha  bool    `yaml:"alpha"`
}

// New returns a document with the stock content.
func New() *Document {
	return &Document{
		Version:  Version,
		Title:    "Titel",
		Subtitle: "Subtitel",
		Chart: Chart{
			Kind:   "bar",
			Labels: "A, B, C, D, E, F",
			Values: "12, 19, 3, 5, 2, 3",
		},
		Style: chart.DefaultStyle(),
		Timing: Timing{
			Duration: DefaultDuration,
			GraphIn:  1,
			GraphOut: 8,
			Easing:   easing.Default,
		},
		Export: Range{Start: 0, End: DefaultDuration, Audio: true},
	}
}

// Series parses the chart text fields.
func (d *Document) Series() chart.Series {
	return chart.ParseSeries(d.Chart.Labels, d.Chart.Values)
}

// Kind resolves the chart kind with the document geometry applied.
func (d *Document) Kind() (chart.Kind, error) {
	k, err := chart.KindByName(d.Chart.Kind)
	if err != nil {
		return nil, err
	}
	if b, ok := k.(chart.Bar); ok {
		if d.Chart.BarWidth > 0 {
			b.Width = d.Chart.BarWidth
		}
		if d.Chart.CornerRadius > 0 {
			b.CornerRadius = d.Chart.CornerRadius
		}
		return b, nil
	}
	return k, nil
}

// Validate checks the document before use.
func (d *Document) Validate() error {
	var errs []error
	if _, err := d.Kind(); err != nil {
		errs = append(errs, err)
	}
	if !(d.Timing.Duration > 0) {
		errs = append(errs, fmt.Errorf("timing.duration must be positive, got %g", d.Timing.Duration))
	}
	if d.Timing.GraphIn < 0 || d.Timing.GraphIn > d.Timing.Duration {
		errs = append(errs, fmt.Errorf("timing.graph_in %g outside [0,%g]", d.Timing.GraphIn, d.Timing.Duration))
	}
	if d.Timing.GraphOut < 0 || d.Timing.GraphOut > d.Timing.Duration {
		errs = append(errs, fmt.Errorf("timing.graph_out %g outside [0,%g]", d.Timing.GraphOut, d.Timing.Duration))
	}
	if d.Series().Len() == 0 {
		errs = append(errs, errors.New("chart.labels is empty"))
	}
	if d.Style.PanelWidth < 0 || d.Style.PanelWidth > 100 {
		errs = append(errs, fmt.Errorf("style.panel_width %g outside [0,100]", d.Style.PanelWidth))
	}
	return errors.Join(errs...)
}

// Job builds the export job for the document's range, taking size and
// rate from cfg where the document leaves them out.
func (d *Document) Job(cfg *config.Config) config.ExportJob {
	j := cfg.Job(d.Export.Start, d.Export.End)
	if d.Export.FPS > 0 {
		j.FPS = d.Export.FPS
	}
	if d.Export.Width > 0 && d.Export.Height > 0 {
		j.Width, j.Height = d.Export.Width, d.Export.Height
	}
	j.IncludeAudio = d.Export.Audio
	j.Alpha = d.Export.Alpha
	return j
}

// Dir is the directory media paths are relative to.
func (d *Document) Dir() string { return d.dir }

// Path resolves a media reference against the document directory.
func (d *Document) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || d.dir == "" {
		return p
	}
	return filepath.Join(d.dir, p)
}
