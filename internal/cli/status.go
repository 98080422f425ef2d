package cli

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/lp"
)

func newStatusCmd(a *app) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show LP totals for the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("week") {
				if week < 0 {
					return apperr.Validationf("--week must not be negative")
				}
				se, w, err := svc.Week(week)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s (%s)\n", titleStyle.Render("Week of"), w.Start.Format("2006-01-02"), se.Name)
				fmt.Fprintln(out, renderTable([]string{"Day", "Date", "LP"}, weekRows(w)))
				fmt.Fprintf(out, "Total %s\n", formatLP(w.Total))
				return nil
			}

			rep, err := svc.Status()
			if err != nil {
				return err
			}
			renderStatus(out, rep.Season, rep.Status)
			return nil
		},
	}

	cmd.Flags().IntVarP(&week, "week", "w", 0, "show gains per day for the week N weeks back (0 is this week)")
	return cmd
}

func weekRows(w lp.Week) [][]string {
	rows := make([][]string, 0, len(w.Days))
	for _, d := range w.Days {
		rows = append(rows, []string{d.Date.Format("Mon"), d.Date.Format("2006-01-02"), formatLP(d.Gain)})
	}
	return rows
}

func newPlotCmd(a *app) *cobra.Command {
	var width, height, days int

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart daily LP gains and net LP for the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 20 || height < 5 {
				return apperr.Validationf("chart must be at least 20x5, got %dx%d", width, height)
			}
			if days < 1 {
				return apperr.Validationf("--days must be at least 1")
			}
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			se, points, err := svc.Series()
			if err != nil {
				return err
			}
			if len(points) > days {
				points = points[len(points)-days:]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", titleStyle.Render("Daily LP"), se.Name)
			fmt.Fprintln(out, renderGainChart(points, width, height))
			fmt.Fprintln(out)
			fmt.Fprintln(out, netLine(points))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 60, "chart width in columns")
	cmd.Flags().IntVar(&height, "height", 12, "chart height in rows")
	cmd.Flags().IntVar(&days, "days", 14, "number of most recent days to plot")
	return cmd
}

// renderGainChart draws one bar per day.
func renderGainChart(points []lp.DayPoint, width, height int) string {
	gain := lipgloss.NewStyle().Foreground(colorSuccess)
	bars := make([]barchart.BarData, 0, len(points))
	for _, p := range points {
		bars = append(bars, barchart.BarData{
			Label: p.Date.Format("02"),
			Values: []barchart.BarValue{
				{Name: "LP", Value: p.Gain, Style: gain},
			},
		})
	}
	chart := barchart.New(width, height)
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func netLine(points []lp.DayPoint) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, p.Date.Format("01-02")+" "+signedLP(p.Net))
	}
	return mutedStyle.Render("net ") + strings.Join(parts, mutedStyle.Render(" | "))
}
