package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/ivlev/chart2video/internal/export"
)

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter shows a bar on terminals and "[>]" lines everywhere else.
type progressPrinter struct {
	w     io.Writer
	tty   bool
	bar   *progressbar.ProgressBar
	state export.State
	step  int
	next  int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w), state: export.Idle}
}

func (p *progressPrinter) update(pr export.Progress) {
	if pr.State != p.state {
		p.state = pr.State
		if p.bar != nil && pr.State != export.EncodingFrames {
			p.bar.Finish()
			fmt.Fprintln(p.w)
			p.bar = nil
		}
		switch pr.State {
		case export.EncodingFrames:
			p.start(pr.Frames)
		case export.Done, export.Failed:
		default:
			fmt.Fprintf(p.w, "[*] %s\n", pr.State)
		}
	}
	if pr.State != export.EncodingFrames || pr.Frame == 0 {
		return
	}
	if p.bar != nil {
		p.bar.Set(pr.Frame)
		return
	}
	if pr.Frame >= p.next || pr.Frame == pr.Frames {
		fmt.Fprintf(p.w, "[>] Кадры: %d/%d (%.0f%%)\n", pr.Frame, pr.Frames, pr.Fraction()*100)
		p.next = pr.Frame + p.step
	}
}

func (p *progressPrinter) start(frames int) {
	if p.tty {
		p.bar = progressbar.NewOptions(frames,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("[>] Кадры"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		return
	}
	p.step = max(1, frames/10)
	p.next = p.step
}
