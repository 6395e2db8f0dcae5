package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/export"
	"github.com/ivlev/chart2video/internal/history"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/system"
)

type rangeFlags struct {
	start, end    float64
	fps           float64
	width, height int
	alpha         bool
	noAudio       bool
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.start, "start", -1, "Начало диапазона, сек (по умолчанию из проекта)")
	cmd.Flags().Float64Var(&f.end, "end", -1, "Конец диапазона, сек (по умолчанию из проекта)")
	cmd.Flags().Float64Var(&f.fps, "fps", 0, "Частота кадров")
	cmd.Flags().IntVar(&f.width, "width", 0, "Ширина")
	cmd.Flags().IntVar(&f.height, "height", 0, "Высота")
	cmd.Flags().BoolVar(&f.alpha, "alpha", false, "Прозрачный фон (ProRes 4444 .mov)")
	cmd.Flags().BoolVar(&f.noAudio, "no-audio", false, "Не включать звук")
}

// apply overrides the document range with the flags the user set.
func (f *rangeFlags) apply(cmd *cobra.Command, doc *project.Document, cfg *config.Config) config.ExportJob {
	job := doc.Job(cfg)
	if cmd.Flags().Changed("start") {
		job.Start = f.start
	}
	if cmd.Flags().Changed("end") {
		job.End = f.end
	}
	if f.fps > 0 {
		job.FPS = f.fps
	}
	if f.width > 0 && f.height > 0 {
		job.Width, job.Height = f.width, f.height
	}
	if cmd.Flags().Changed("alpha") {
		job.Alpha = f.alpha
	}
	if f.noAudio {
		job.IncludeAudio = false
	}
	return job
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags rangeFlags
	var output string
	var benchmarkLog string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Покадровый экспорт диапазона таймлайна в видео",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, path, err := ctx.loadProject()
			if err != nil {
				return err
			}
			job := flags.apply(cmd, doc, cfg)
			if err := job.Validate(); err != nil {
				return err
			}
			if output == "" {
				output = ctx.defaultOutput(path)
			}

			sess, err := ctx.openSession(doc)
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Printf("[*] Экспорт %.2f-%.2fs, %dx%d @ %g fps, кадров: %d\n",
				job.Start, job.End, job.Width, job.Height, job.FPS, job.FrameCount())

			progress := newProgressPrinter(os.Stderr)
			pipe := ctx.pipeline(sess, doc, output, progress.update)

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()
			res, runErr := pipe.Run(runCtx, job)

			recordHistory(cfg, path, job, res, runErr)
			if runErr != nil {
				return fmt.Errorf("экспорт не удался: %w", runErr)
			}

			size := int64(0)
			if fi, err := os.Stat(res.Output); err == nil {
				size = fi.Size()
			}
			fmt.Printf("[+++] Готово! Видео сохранено в %s (%s)\n", res.Output, humanize.Bytes(uint64(size)))
			if res.Warnings > 0 {
				fmt.Printf("[!] Кадров с предупреждениями: %d\n", res.Warnings)
			}
			if job.IncludeAudio && !res.AudioIncluded {
				fmt.Println("[!] Звук не включен")
			}
			fmt.Print(res.Report(system.CollectStats()))

			if benchmarkLog != "" {
				if err := export.AppendBenchmark(benchmarkLog, path, res); err != nil {
					fmt.Printf("[!] Не удалось записать %s: %v\n", benchmarkLog, err)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Путь к видео (по умолчанию в папке export.output_dir)")
	cmd.Flags().StringVar(&benchmarkLog, "benchmark-log", "", "Дописать строку с замерами в этот файл")
	return cmd
}

// recordHistory stores the run. A broken history database never fails the export.
func recordHistory(cfg *config.Config, projectPath string, job config.ExportJob, res export.Result, runErr error) {
	if cfg.Paths.HistoryDB == "" {
		return
	}
	if errors.Is(runErr, export.ErrBusy) || errors.Is(runErr, config.ErrInvalidRange) || errors.Is(runErr, config.ErrEmptyJob) {
		return
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		fmt.Printf("[!] История недоступна: %v\n", err)
		return
	}
	defer store.Close()

	entry := &history.Entry{
		ID:       res.ID,
		Project:  projectPath,
		Output:   res.Output,
		Status:   history.StatusDone,
		Start:    job.Start,
		End:      job.End,
		FPS:      job.FPS,
		Width:    job.Width,
		Height:   job.Height,
		Frames:   res.Frames,
		Warnings: res.Warnings,
		Audio:    res.AudioIncluded,
		Alpha:    job.Alpha,
		Elapsed:  res.Elapsed,
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = runErr.Error()
	}
	if fi, err := os.Stat(res.Output); err == nil && res.Output != "" {
		entry.Bytes = fi.Size()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Record(ctx, entry); err != nil {
		fmt.Printf("[!] Не удалось записать историю: %v\n", err)
	}
}

func newStillCommand(ctx *commandContext) *cobra.Command {
	var at float64
	var width, height int
	var alpha bool
	var output string

	cmd := &cobra.Command{
		Use:   "still",
		Short: "Сохранить один кадр: JPEG с фоном или PNG с прозрачностью",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, path, err := ctx.loadProject()
			if err != nil {
				return err
			}
			size := image.Pt(cfg.Export.Width, cfg.Export.Height)
			if doc.Export.Width > 0 && doc.Export.Height > 0 {
				size = image.Pt(doc.Export.Width, doc.Export.Height)
			}
			if width > 0 && height > 0 {
				size = image.Pt(width, height)
			}
			if output == "" {
				output = ctx.defaultOutput(path)
			}

			sess, err := ctx.openSession(doc)
			if err != nil {
				return err
			}
			defer sess.Close()

			pipe := ctx.pipeline(sess, doc, "", nil)
			out, err := pipe.Still(cmd.Context(), export.StillJob{At: at, Size: size, Alpha: alpha, Output: output})
			if err != nil {
				return err
			}
			fmt.Printf("[+++] Кадр %.2fs сохранен в %s\n", at, filepath.Clean(out))
			return nil
		},
	}

	cmd.Flags().Float64Var(&at, "at", 5, "Момент таймлайна, сек")
	cmd.Flags().IntVar(&width, "width", 0, "Ширина")
	cmd.Flags().IntVar(&height, "height", 0, "Высота")
	cmd.Flags().BoolVar(&alpha, "alpha", false, "PNG без фона")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Путь к изображению")
	return cmd
}
