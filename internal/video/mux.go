package video

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegMuxer stream-copies the encoded streams into one container.
type FFmpegMuxer struct {
	FFmpeg string
}

func (m FFmpegMuxer) Mux(ctx context.Context, v Stream, a *Stream, out string) error {
	bin := m.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, muxArgs(v, a, out)...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %v, output: %s", err, strings.TrimSpace(string(b)))
	}
	return nil
}

func muxArgs(v Stream, a *Stream, out string) []string {
	args := []string{"-y", "-v", "error"}
	args = append(args, inputArgs(v)...)
	if a != nil {
		args = append(args, inputArgs(*a)...)
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-shortest")
	}
	return append(args, "-c", "copy", "-movflags", "+faststart", out)
}

func inputArgs(s Stream) []string {
	var args []string
	if s.Format != "" {
		args = append(args, "-f", s.Format)
	}
	if s.FPS > 0 {
		args = append(args, "-framerate", strconv.FormatFloat(s.FPS, 'f', -1, 64))
	}
	return append(args, "-i", s.Path)
}
