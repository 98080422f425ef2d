package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

const dailyWindow = 7

type reportsModel struct {
	svc    *ledger.Service
	width  int
	height int

	mode   reportMode
	offset int // windows or weeks back from now (0 = current)

	season *store.Season
	points []lp.DayPoint
	week   lp.Week
	err    error

	chart barchart.Model
}

func newReportsModel(svc *ledger.Service) reportsModel {
	return reportsModel{
		svc:   svc,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	season *store.Season
	points []lp.DayPoint
	week   lp.Week
	err    error
}

func (r reportsModel) refresh() tea.Cmd {
	mode, offset := r.mode, r.offset
	return func() tea.Msg {
		if mode == reportWeekly {
			se, w, err := r.svc.Week(offset)
			return reportsDataMsg{season: se, week: w, err: err}
		}
		se, points, err := r.svc.Series()
		return reportsDataMsg{season: se, points: points, err: err}
	}
}

// window returns the daily points shown at the current offset.
func (r reportsModel) window() []lp.DayPoint {
	end := len(r.points) - dailyWindow*r.offset
	if end <= 0 {
		return nil
	}
	start := max(0, end-dailyWindow)
	return r.points[start:end]
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.err = msg.err
		r.season = msg.season
		r.points = msg.points
		r.week = msg.week
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.mode == reportDaily && (r.offset+1)*dailyWindow >= len(r.points) {
				return r, nil
			}
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	gain := lipgloss.NewStyle().Foreground(colorSuccess)
	var bars []barchart.BarData
	if r.mode == reportWeekly {
		for _, d := range r.week.Days {
			bars = append(bars, barchart.BarData{
				Label:  d.Date.Format("Mon 02"),
				Values: []barchart.BarValue{{Name: "LP", Value: d.Gain, Style: gain}},
			})
		}
	} else {
		for _, p := range r.window() {
			bars = append(bars, barchart.BarData{
				Label:  p.Date.Format("Mon 02"),
				Values: []barchart.BarValue{{Name: "LP", Value: p.Gain, Style: gain}},
			})
		}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) rangeLabel() string {
	if r.mode == reportWeekly {
		if r.week.Start.IsZero() {
			return ""
		}
		return fmt.Sprintf("%s - %s", r.week.Start.Format("Jan 02"), r.week.Start.AddDate(0, 0, 6).Format("Jan 02, 2006"))
	}
	w := r.window()
	if len(w) == 0 {
		return ""
	}
	return fmt.Sprintf("%s - %s", w[0].Date.Format("Jan 02"), w[len(w)-1].Date.Format("Jan 02, 2006"))
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", mutedStyle.Render(r.rangeLabel()),
	)

	if r.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", errorStyle.Render(r.err.Error())))
	}

	nav := mutedStyle.Render("  ←/→: older/newer  enter: switch mode")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	var rows []string
	rule := mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 48)))

	if r.mode == reportWeekly {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-5s %10s", "Date", "Day", "Gain")), rule)
		for _, d := range r.week.Days {
			rows = append(rows, fmt.Sprintf("  %-12s %-5s %10s", d.Date.Format("2006-01-02"), d.Date.Format("Mon"), formatLP(d.Gain)))
		}
		rows = append(rows, rule, fmt.Sprintf("  %-18s %10s", "Total", highlightStyle.Render(formatLP(r.week.Total))))
		return strings.Join(rows, "\n")
	}

	points := r.window()
	if len(points) == 0 {
		return mutedStyle.Render("  No data for this period")
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s", "Date", "Gain", "Decay", "Net")), rule)
	for _, p := range points {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %10s %10s",
			p.Date.Format("2006-01-02"), formatLP(p.Gain), formatLP(p.Decay), netStyleFor(p.Net)))
	}
	return strings.Join(rows, "\n")
}
