package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/export"
	"github.com/ivlev/chart2video/internal/media"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/session"
	"github.com/ivlev/chart2video/internal/video"
)

// pdfDPI is the raster density of PDF backgrounds.
const pdfDPI = 150

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, projectFlag: projectFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// projectPath is the --project flag or the newest YAML in the working directory.
func (c *commandContext) projectPath() (string, error) {
	if c.projectFlag != nil && strings.TrimSpace(*c.projectFlag) != "" {
		return config.ExpandPath(strings.TrimSpace(*c.projectFlag))
	}
	latest, err := project.FindLatest(".")
	if err != nil {
		return "", fmt.Errorf("проект не найден (%v); создайте его командой `chart2video init`", err)
	}
	fmt.Printf("[*] Выбран проект: %s\n", latest)
	return latest, nil
}

func (c *commandContext) loadProject() (*project.Document, string, error) {
	path, err := c.projectPath()
	if err != nil {
		return nil, "", err
	}
	doc, err := project.Read(path)
	if err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

// openSession opens the background of doc and builds a session around it.
func (c *commandContext) openSession(doc *project.Document) (*session.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	bgPath := doc.Path(doc.Media.Background)
	bg, err := media.Open(bgPath, media.OpenOptions{
		FFmpeg:  cfg.Tools.FFmpeg,
		FFprobe: cfg.Tools.FFprobe,
		Decoder: cfg.Video.Decoder,
		Size:    image.Pt(cfg.Export.Width, cfg.Export.Height),
		FPS:     cfg.Export.FPS,
		DPI:     pdfDPI,
	})
	if err != nil {
		return nil, fmt.Errorf("фон %s: %w", bgPath, err)
	}
	if bgPath != "" {
		fmt.Printf("[*] Фон: %s\n", bgPath)
	}
	sess, err := session.New(doc, bg)
	if err != nil {
		bg.Close()
		return nil, err
	}
	return sess, nil
}

// logos resolves the logo directory of doc, falling back to the configured one.
func (c *commandContext) logos(doc *project.Document) *media.Logos {
	dir := doc.Path(doc.Media.Logos)
	if dir == "" && c.config != nil {
		dir = c.config.Paths.LogoDir
	}
	return media.NewLogos(dir)
}

func (c *commandContext) pipeline(sess *session.Session, doc *project.Document, output string, onProgress func(export.Progress)) *export.Pipeline {
	cfg := c.config
	return export.New(sess, export.NewBackend(cfg), export.Options{
		Output:   output,
		LockFile: cfg.Paths.LockFile,
		Video: video.Settings{
			FFmpeg:           cfg.Tools.FFmpeg,
			Backend:          cfg.Video.Backend,
			Encoder:          cfg.Video.Encoder,
			Quality:          cfg.Video.Quality,
			KeyframeInterval: cfg.Video.KeyframeInterval,
		},
		SeekTimeout: time.Duration(cfg.Video.SeekTimeoutMS) * time.Millisecond,
		AudioRate:   cfg.Video.AudioRate,
		AudioChunk:  cfg.Video.AudioChunk,
		Logos:       c.logos(doc),
		OnProgress:  onProgress,
		Logger:      log.Default(),
	})
}

// defaultOutput names the file after the project and the current time.
func (c *commandContext) defaultOutput(projectPath string) string {
	base := strings.TrimSuffix(filepath.Base(projectPath), filepath.Ext(projectPath))
	base = strings.ReplaceAll(base, " ", "_")
	stamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(c.config.Export.OutputDir, fmt.Sprintf("%s_%s", base, stamp))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
