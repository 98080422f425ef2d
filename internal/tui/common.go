package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sadopc/lptrack/internal/store"
)

// viewState is the active tab.
type viewState int

const (
	viewDashboard viewState = iota
	viewLog
	viewSeasons
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Log", "Seasons", "Reports", "Settings"}

// --- Messages ---

type taskStartedMsg struct {
	task *store.Task
}

type taskStoppedMsg struct {
	task *store.Task
}

type taskCompletedMsg struct {
	task *store.Task
}

type seasonChangedMsg struct {
	season *store.Season
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

func errStatus(err error) tea.Msg {
	return statusMsg{text: "Error: " + err.Error(), isError: true}
}

// --- Helpers ---

var printer = message.NewPrinter(language.English)

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatLP(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func formatGain(v *float64) string {
	if v == nil {
		return "-"
	}
	return "+" + formatLP(*v)
}

// netStyleFor colours a net LP value by sign.
func netStyleFor(v float64) string {
	if v < 0 {
		return errorStyle.Render(formatLP(v))
	}
	return successStyle.Render(formatLP(v))
}
