package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorError   = lipgloss.Color("#E74C3C")
	colorSubtle  = lipgloss.Color("#414868")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	gainStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	lossStyle     = lipgloss.NewStyle().Foreground(colorError)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	borderStyle   = lipgloss.NewStyle().Foreground(colorSubtle)
	activeMarker  = gainStyle.Render("*")
	timeLayout    = "2006-01-02 15:04"
	printer       = message.NewPrinter(language.English)
)

func formatLP(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// signedLP colours a net value by sign.
func signedLP(v float64) string {
	if v < 0 {
		return lossStyle.Render(formatLP(v))
	}
	return gainStyle.Render(formatLP(v))
}

func formatOptionalLP(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatLP(*v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatMinutes(m float64) string {
	d := time.Duration(m * float64(time.Minute)).Round(time.Minute)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02dm", h, mins)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func taskRows(tasks []store.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			fmt.Sprint(t.ID),
			t.DOW,
			t.Description,
			t.Project,
			t.Difficulty,
			string(lp.StateOf(t)),
			formatTime(t.StartTime),
		})
	}
	return rows
}

func logRows(tasks []store.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			fmt.Sprint(t.ID),
			t.DOW,
			t.Description,
			t.Project,
			t.Difficulty,
			formatMinutes(lp.ResolveDuration(t, nil)),
			formatOptionalLP(t.LPGain),
			formatTime(t.FinishTime),
			t.Reflection,
		})
	}
	return rows
}

func seasonRows(seasons []store.Season) [][]string {
	rows := make([][]string, 0, len(seasons))
	for _, se := range seasons {
		marker := ""
		if se.Active {
			marker = activeMarker
		}
		rows = append(rows, []string{
			marker,
			fmt.Sprint(se.ID),
			se.Name,
			formatTime(&se.StartDate),
			formatTime(se.EndDate),
			formatLP(se.DailyDecay),
			se.Timezone,
		})
	}
	return rows
}

func renderStatus(w io.Writer, se store.Season, st lp.Status) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Season"), fmt.Sprintf("%s (id %d, %s)", se.Name, se.ID, se.Timezone))
	fmt.Fprintf(&b, "  Total gain  %s (%d completed)\n", formatLP(st.TotalGain), st.Completed)
	fmt.Fprintf(&b, "  Decay       %s (%d days x %s)\n", formatLP(st.TotalDecay), st.DaysElapsed, formatLP(st.DailyDecay))
	fmt.Fprintf(&b, "  Net LP      %s\n", signedLP(st.NetTotal))
	fmt.Fprintf(&b, "  Today       %s\n", formatLP(st.TodayGain))
	if se.EndDate != nil {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render("archived "+se.EndDate.Format(timeLayout)+"; decay is frozen"))
	}
	fmt.Fprint(w, b.String())
}

// interactive reports whether cmd reads from a terminal.
func interactive(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// confirm returns true when yes is set or the user accepts the prompt. It
// never prompts without a terminal.
func confirm(cmd *cobra.Command, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	if !interactive(cmd) {
		return false, nil
	}
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}
