package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ivlev/chart2video/internal/easing"
	"github.com/ivlev/chart2video/internal/history"
	"github.com/ivlev/chart2video/internal/project"
	"github.com/ivlev/chart2video/internal/session"
)

// editSession opens doc without its background: timing edits never need it.
func editSession(doc *project.Document) (*session.Session, error) {
	return session.New(doc, nil)
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var reset bool
	var graphIn float64
	var bars []string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Показать или изменить время появления столбцов",
		Example: "  chart2video schedule --graph-in 1.5\n" +
			"  chart2video schedule --bar 2=3.1 --bar 4=3.6\n" +
			"  chart2video schedule --reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, path, err := ctx.loadProject()
			if err != nil {
				return err
			}
			sess, err := editSession(doc)
			if err != nil {
				return err
			}
			defer sess.Close()

			changed := false
			if reset {
				sess.ResetSchedule()
				changed = true
			}
			if cmd.Flags().Changed("graph-in") {
				sess.SetGraphIn(graphIn)
				changed = true
			}
			for _, b := range bars {
				i, at, err := parseBar(b)
				if err != nil {
					return err
				}
				if _, err := sess.SetBarStart(i, at); err != nil {
					return err
				}
				changed = true
			}
			if changed {
				if err := project.Write(sess.Document(), path); err != nil {
					return err
				}
				fmt.Printf("[*] Проект обновлен: %s\n", path)
			}

			st := sess.State()
			rows := make([][]string, 0, len(st.Labels))
			for i, label := range st.Labels {
				mark := ""
				if doc.Style.IsHighlighted(i) {
					mark = "*"
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					label + mark,
					strconv.FormatFloat(st.Values[i], 'f', -1, 64),
					fmt.Sprintf("%.2f", st.Starts[i]),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "in: %.2fs  out: %.2fs  длительность: %.2fs\n", st.GraphIn, st.GraphOut, st.Duration)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Категория", "Значение", "Старт, с"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Сбросить ручную расстановку")
	cmd.Flags().Float64Var(&graphIn, "graph-in", 0, "Новое время появления графика, сек")
	cmd.Flags().StringArrayVar(&bars, "bar", nil, "Поставить столбец вручную: индекс=секунды")
	return cmd
}

func parseBar(s string) (int, float64, error) {
	idx, at, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("--bar %q: ожидается индекс=секунды", s)
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return 0, 0, fmt.Errorf("--bar %q: %w", s, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(at), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--bar %q: %w", s, err)
	}
	return i, v, nil
}

func newCurveCommand(ctx *commandContext) *cobra.Command {
	var set string
	var steps int

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Показать или задать кривую роста столбцов",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, path, err := ctx.loadProject()
			if err != nil {
				return err
			}
			sess, err := editSession(doc)
			if err != nil {
				return err
			}
			defer sess.Close()

			if set != "" {
				if !sess.SetEasing(set) {
					return fmt.Errorf("%w: %q, оставлена %s", easing.ErrParse, set, sess.Curve())
				}
				if err := project.Write(sess.Document(), path); err != nil {
					return err
				}
				fmt.Printf("[*] Проект обновлен: %s\n", path)
			}

			curve := sess.Curve()
			steps = max(steps, 1)
			rows := make([][]string, 0, steps+1)
			for i := 0; i <= steps; i++ {
				t := float64(i) / float64(steps)
				rows = append(rows, []string{fmt.Sprintf("%.2f", t), fmt.Sprintf("%.3f", curve.Evaluate(t))})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cubic-bezier(%s)\n", curve)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"t", "y"}, rows, []columnAlignment{alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Новая кривая: x1,y1,x2,y2")
	cmd.Flags().IntVar(&steps, "steps", 10, "Число шагов в таблице")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Последние экспорты",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "История пуста")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				status := string(e.Status)
				if e.Error != "" {
					status += ": " + e.Error
				}
				rows = append(rows, []string{
					humanize.Time(e.CreatedAt),
					e.Output,
					fmt.Sprintf("%.2f-%.2f", e.Start, e.End),
					fmt.Sprintf("%dx%d@%g", e.Width, e.Height, e.FPS),
					strconv.Itoa(e.Frames),
					strconv.FormatInt(e.Warnings, 10),
					humanize.Bytes(uint64(e.Bytes)),
					fmt.Sprintf("%.1fs", e.Elapsed.Seconds()),
					status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Когда", "Файл", "Диапазон", "Формат", "Кадры", "Предупр.", "Размер", "Время", "Статус"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Сколько записей показать")
	return cmd
}
