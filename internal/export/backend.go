package export

import (
	"context"

	"github.com/ivlev/chart2video/internal/chart"
	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/media"
	"github.com/ivlev/chart2video/internal/video"
)

// Backend creates the collaborators of one run. Encoders are built through
// factories so a job that fails validation or probing never creates one.
type Backend struct {
	Probe     func(s video.Settings) (video.Capabilities, error)
	NewVideo  func(ctx context.Context, s video.Settings) (video.Encoder, error)
	NewAudio  func(ctx context.Context, workDir string, rate, channels int) (video.AudioEncoder, error)
	Muxer     video.Muxer
	LoadAudio func(ctx context.Context, path string, rate int) (media.PCM, error)
	// NewRenderer returns a fresh chart renderer; renderers are not shared
	// between the preview and an export.
	NewRenderer func() (chart.Renderer, error)
}

// NewBackend wires the ffmpeg tools from cfg.
func NewBackend(cfg *config.Config) Backend {
	bin := cfg.Tools.FFmpeg
	return Backend{
		Probe:    video.Probe,
		NewVideo: video.NewEncoder,
		NewAudio: func(ctx context.Context, workDir string, rate, channels int) (video.AudioEncoder, error) {
			return video.NewFFmpegAudioEncoder(ctx, bin, workDir, rate, channels)
		},
		Muxer: video.FFmpegMuxer{FFmpeg: bin},
		LoadAudio: func(ctx context.Context, path string, rate int) (media.PCM, error) {
			return media.LoadAudio(ctx, bin, path, rate)
		},
		NewRenderer: NativeRenderer,
	}
}

// NativeRenderer is the built-in vector chart renderer.
func NativeRenderer() (chart.Renderer, error) {
	fonts, err := chart.LoadFonts()
	if err != nil {
		return nil, err
	}
	return chart.NewNative(fonts), nil
}
