package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	def := Default()

	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = def.Tools.FFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = def.Tools.FFprobe
	}

	c.Video.Backend = strings.ToLower(strings.TrimSpace(c.Video.Backend))
	if c.Video.Backend == "" {
		c.Video.Backend = def.Video.Backend
	}
	c.Video.Decoder = strings.ToLower(strings.TrimSpace(c.Video.Decoder))
	if c.Video.Decoder == "" {
		c.Video.Decoder = def.Video.Decoder
	}
	c.Video.Encoder = strings.TrimSpace(c.Video.Encoder)
	if c.Video.SeekTimeoutMS <= 0 {
		c.Video.SeekTimeoutMS = def.Video.SeekTimeoutMS
	}
	if c.Video.KeyframeInterval <= 0 {
		c.Video.KeyframeInterval = def.Video.KeyframeInterval
	}
	if c.Video.AudioRate <= 0 {
		c.Video.AudioRate = def.Video.AudioRate
	}
	if c.Video.AudioChunk <= 0 {
		c.Video.AudioChunk = def.Video.AudioChunk
	}

	if c.Export.Width <= 0 {
		c.Export.Width = def.Export.Width
	}
	if c.Export.Height <= 0 {
		c.Export.Height = def.Export.Height
	}
	if c.Export.FPS <= 0 {
		c.Export.FPS = def.Export.FPS
	}

	if c.Preview.Bind = strings.TrimSpace(c.Preview.Bind); c.Preview.Bind == "" {
		c.Preview.Bind = def.Preview.Bind
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		c.Preview.Width, c.Preview.Height = def.Preview.Width, def.Preview.Height
	}
	if c.Preview.JPEGQuality <= 0 || c.Preview.JPEGQuality > 100 {
		c.Preview.JPEGQuality = def.Preview.JPEGQuality
	}

	if c.Paths.LockFile == "" {
		c.Paths.LockFile = def.Paths.LockFile
	}
	if c.Paths.HistoryDB == "" {
		c.Paths.HistoryDB = def.Paths.HistoryDB
	}
	var err error
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogoDir, err = expandPath(c.Paths.LogoDir); err != nil {
		return fmt.Errorf("paths.logo_dir: %w", err)
	}
	if c.Export.OutputDir, err = expandPath(c.Export.OutputDir); err != nil {
		return fmt.Errorf("export.output_dir: %w", err)
	}

	if c.Locale = strings.TrimSpace(c.Locale); c.Locale == "" {
		c.Locale = def.Locale
	}
	return nil
}
