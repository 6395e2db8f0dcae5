package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/chart2video/internal/export"
	"github.com/ivlev/chart2video/internal/preview"
	"github.com/ivlev/chart2video/internal/project"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var save bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Живое превью (MJPEG) с управлением по HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, path, err := ctx.loadProject()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Preview.Bind
			}

			sess, err := ctx.openSession(doc)
			if err != nil {
				return err
			}
			defer sess.Close()

			renderer, err := export.NativeRenderer()
			if err != nil {
				return err
			}
			logger := log.Default()

			srv, err := preview.New(sess, preview.Options{
				Size:     image.Pt(cfg.Preview.Width, cfg.Preview.Height),
				Quality:  cfg.Preview.JPEGQuality,
				Renderer: renderer,
				Logos:    ctx.logos(doc),
				Logger:   logger,
				Export: func(runCtx context.Context) error {
					job := sess.Document().Job(cfg)
					out := export.OutputPath(ctx.defaultOutput(path), job.Alpha)
					logger.Printf("[*] Экспорт из превью: %s", out)
					res, err := ctx.pipeline(sess, doc, out, nil).Run(runCtx, job)
					recordHistory(cfg, path, job, res, err)
					if err != nil {
						return err
					}
					logger.Printf("[+++] Экспорт готов: %s (%d кадров, %.2fs)", res.Output, res.Frames, res.Elapsed.Seconds())
					return nil
				},
			})
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()
			fmt.Printf("[*] Превью: http://%s/stream.mjpg (Ctrl+C для выхода)\n", bind)
			if err := srv.ListenAndServe(runCtx, bind); err != nil {
				return err
			}

			if save {
				if err := project.Write(sess.Document(), path); err != nil {
					return fmt.Errorf("сохранить проект: %w", err)
				}
				fmt.Fprintf(os.Stdout, "[*] Проект сохранен: %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Адрес HTTP-сервера (по умолчанию preview.bind)")
	cmd.Flags().BoolVar(&save, "save", true, "Сохранить изменения тайминга в проект при выходе")
	return cmd
}
