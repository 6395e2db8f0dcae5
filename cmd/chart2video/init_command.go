package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/chart2video/internal/config"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/system"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init [project.yaml]",
		Short: "Создать файл настроек (если его нет) и новый проект",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var configPath string
			if ctx.configFlag != nil {
				configPath = strings.TrimSpace(*ctx.configFlag)
			}
			_, resolved, exists, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !exists {
				if err := config.CreateSample(resolved); err != nil {
					return err
				}
				fmt.Fprintf(out, "[*] Настройки записаны: %s\n", resolved)
			}

			target := "chart.yaml"
			if len(args) == 1 {
				target = args[0]
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("проект %s уже существует (используйте --overwrite)", target)
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc := project.New()
			doc.Style.Locale = cfg.Locale
			dir := filepath.Dir(target)
			if bg, err := system.FindLatestBackground(dir); err == nil {
				doc.Media.Background = filepath.Base(bg)
				fmt.Fprintf(out, "[*] Выбран фон: %s\n", bg)
			}
			if audio, err := system.FindLatestAudio(dir); err == nil {
				doc.Media.Soundtrack = filepath.Base(audio)
				fmt.Fprintf(out, "[*] Выбрано аудио: %s\n", audio)
			}
			if err := project.Write(doc, target); err != nil {
				return err
			}
			fmt.Fprintf(out, "[+++] Проект создан: %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Перезаписать существующий проект")
	return cmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Показать действующие настройки",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
