package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ivlev/chart2video/internal/system"
)

// Report formats the performance summary printed after an export.
func (r Result) Report(stats system.Stats) string {
	fps := 0.0
	if r.Elapsed > 0 {
		fps = float64(r.Frames) / r.Elapsed.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Job: %s\n"+
			"Encoder: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Muxing: %.2fs\n"+
			"Frames: %d (warnings: %d)\n"+
			"Effective FPS: %.2f\n"+
			"RSS: %s | CPU: %.1f%% | Host RAM: %.1f%% of %s\n"+
			"----------------------------\n",
		r.ID, r.Encoder, r.Elapsed.Seconds(), r.RenderTime.Seconds(), r.MuxTime.Seconds(),
		r.Frames, r.Warnings, fps,
		humanize.IBytes(stats.RSS), stats.CPUPercent, stats.HostUsed, humanize.IBytes(stats.HostTotal),
	)
}

// AppendBenchmark adds one line about r to the log at path.
func AppendBenchmark(path, project string, r Result) error {
	fps := 0.0
	if r.Elapsed > 0 {
		fps = float64(r.Frames) / r.Elapsed.Seconds()
	}
	entry := fmt.Sprintf("[%s] Job: %s | Project: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Mux: %.2fs | FPS: %.2f | Encoder: %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		r.ID,
		filepath.Base(project),
		r.Frames,
		r.Elapsed.Seconds(),
		r.RenderTime.Seconds(),
		r.MuxTime.Seconds(),
		fps,
		r.Encoder,
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}
