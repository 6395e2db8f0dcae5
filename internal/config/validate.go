package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Video.Backend {
	case "ffmpeg", "x264":
	default:
		return fmt.Errorf("video.backend must be ffmpeg or x264, got %q", c.Video.Backend)
	}
	switch c.Video.Decoder {
	case "ffmpeg", "opencv":
	default:
		return fmt.Errorf("video.decoder must be ffmpeg or opencv, got %q", c.Video.Decoder)
	}
	if c.Video.Quality < 0 {
		return errors.New("video.quality must not be negative")
	}
	if c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		return fmt.Errorf("export size %dx%d must be even", c.Export.Width, c.Export.Height)
	}
	if c.Export.FPS > 240 {
		return fmt.Errorf("export.fps %g is out of range", c.Export.FPS)
	}
	return nil
}
