package config

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrInvalidRange is returned when the export range is empty or reversed.
	ErrInvalidRange = errors.New("invalid export range")
	// ErrEmptyJob is returned when a job would produce no frames.
	ErrEmptyJob = errors.New("export job has no frames")
)

// ExportJob describes one render of a timeline sub-range.
type ExportJob struct {
	Start        float64
	End          float64
	FPS          float64
	Width        int
	Height       int
	IncludeAudio bool
	Alpha        bool
}

// Job returns an export job over [start, end) with the configured defaults.
func (c *Config) Job(start, end float64) ExportJob {
	return ExportJob{
		Start:  start,
		End:    end,
		FPS:    c.Export.FPS,
		Width:  c.Export.Width,
		Height: c.Export.Height,
	}
}

// Validate rejects ranges that cannot produce frames.
func (j ExportJob) Validate() error {
	if math.IsNaN(j.Start) || math.IsNaN(j.End) || j.Start < 0 || j.End <= j.Start {
		return fmt.Errorf("%w: %.3f..%.3f", ErrInvalidRange, j.Start, j.End)
	}
	if j.FPS <= 0 || math.IsNaN(j.FPS) || math.IsInf(j.FPS, 0) {
		return fmt.Errorf("%w: fps %g", ErrInvalidRange, j.FPS)
	}
	if j.Width <= 0 || j.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidRange, j.Width, j.Height)
	}
	if j.FrameCount() <= 0 {
		return ErrEmptyJob
	}
	return nil
}

// FrameCount is floor(fps * (end - start)).
func (j ExportJob) FrameCount() int {
	if j.End <= j.Start || j.FPS <= 0 {
		return 0
	}
	return int(math.Floor(j.FPS*(j.End-j.Start) + 1e-9))
}

// Seconds is the timeline second of output frame i.
func (j ExportJob) Seconds(i int) float64 {
	return j.Start + float64(i)/j.FPS
}

// PTS is the presentation timestamp of frame i in microseconds.
func (j ExportJob) PTS(i int) int64 {
	return int64(math.Round(float64(i) * 1e6 / j.FPS))
}

// Size is the output raster size.
func (j ExportJob) Size() image.Point {
	return image.Pt(j.Width, j.Height)
}

// Duration is the length of the range in seconds.
func (j ExportJob) Duration() float64 {
	return j.End - j.Start
}
