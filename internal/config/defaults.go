package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultFPS         = 25.0
	DefaultSeekTimeout = 150
	DefaultAudioRate   = 48000
	DefaultAudioChunk  = 4096
	DefaultPreviewBind = "127.0.0.1:8090"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Tools: Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"},
		Video: Video{
			Backend:          "ffmpeg",
			Decoder:          "ffmpeg",
			SeekTimeoutMS:    DefaultSeekTimeout,
			KeyframeInterval: 60,
			AudioRate:        DefaultAudioRate,
			AudioChunk:       DefaultAudioChunk,
		},
		Export: Export{
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			FPS:       DefaultFPS,
			OutputDir: "output",
		},
		Preview: Preview{
			Bind:        DefaultPreviewBind,
			Width:       960,
			Height:      540,
			JPEGQuality: 80,
		},
		Paths: Paths{
			LockFile:  filepath.Join(stateDir(), "export.lock"),
			HistoryDB: filepath.Join(stateDir(), "history.db"),
			LogoDir:   "logos",
		},
		Locale: "nl",
	}
}

func stateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "chart2video")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chart2video")
	}
	return filepath.Join(home, ".local", "state", "chart2video")
}
