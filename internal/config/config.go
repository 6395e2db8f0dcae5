package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools locates the external binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Video configures encoding and background decoding.
type Video struct {
	// Backend is "ffmpeg" or "x264".
	Backend string `toml:"backend"`
	// Encoder is the ffmpeg H.264 encoder; empty probes for the best one.
	Encoder string `toml:"encoder"`
	// Quality: CRF for libx264/nvenc, bitrate/100 kbit/s for VideoToolbox.
	// Zero picks a default for the encoder.
	Quality int `toml:"quality"`
	// Decoder is "ffmpeg" or "opencv" for video backgrounds.
	Decoder          string `toml:"decoder"`
	SeekTimeoutMS    int    `toml:"seek_timeout_ms"`
	KeyframeInterval int    `toml:"keyframe_interval"`
	AudioRate        int    `toml:"audio_rate"`
	AudioChunk       int    `toml:"audio_chunk"`
}

// Export holds defaults for export jobs.
type Export struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	FPS       float64 `toml:"fps"`
	OutputDir string  `toml:"output_dir"`
}

// Preview configures the live preview server.
type Preview struct {
	Bind        string `toml:"bind"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	JPEGQuality int    `toml:"jpeg_quality"`
}

// Paths contains state files.
type Paths struct {
	LockFile  string `toml:"lock_file"`
	HistoryDB string `toml:"history_db"`
	LogoDir   string `toml:"logo_dir"`
}

// Config is the tool configuration. Project content lives in the YAML
// project document, not here.
type Config struct {
	Tools   Tools   `toml:"tools"`
	Video   Video   `toml:"video"`
	Export  Export  `toml:"export"`
	Preview Preview `toml:"preview"`
	Paths   Paths   `toml:"paths"`
	Locale  string  `toml:"locale"`
}

// DefaultConfigPath is $XDG_CONFIG_HOME/chart2video/config.toml.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "chart2video", "config.toml"), nil
	}
	return expandPath("~/.config/chart2video/config.toml")
}

// Load reads path (or the default location) over the defaults, then
// normalizes and validates. A missing file is not an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config %s is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(p string) (string, error) { return expandPath(p) }

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
