package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

// settingsModel edits the decay and time zone of the active season.
type settingsModel struct {
	svc    *ledger.Service
	width  int
	height int

	season *store.Season
	err    error

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	decay    *string
	timezone *string
}

func newSettingsModel(svc *ledger.Service) settingsModel {
	decay, tz := "", ""
	return settingsModel{svc: svc, decay: &decay, timezone: &tz}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	season *store.Season
	err    error
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		se, err := s.svc.CurrentSeason()
		return settingsDataMsg{season: se, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.season, s.err = msg.season, msg.err
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			if s.season != nil {
				return s.showForm()
			}
		}
	}
	return s, nil
}

func validateDecay(v string) error {
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if d < 0 {
		return fmt.Errorf("decay must not be negative")
	}
	return nil
}

func validateTimezone(v string) error {
	if _, err := time.LoadLocation(strings.TrimSpace(v)); err != nil || strings.TrimSpace(v) == "" {
		return fmt.Errorf("unknown time zone")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.decay = strconv.FormatFloat(s.season.DailyDecay, 'f', -1, 64)
	*s.timezone = s.season.Timezone

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily decay (LP)").Value(s.decay).Validate(validateDecay),
			huh.NewInput().Title("Time zone (IANA)").Value(s.timezone).Validate(validateTimezone),
		).Title(s.season.Name),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		se, err := s.save()
		if err != nil {
			return s, tea.Batch(s.refresh(), func() tea.Msg { return errStatus(err) })
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return seasonChangedMsg{season: se} })
	}
	return s, cmd
}

func (s settingsModel) save() (*store.Season, error) {
	decay, err := strconv.ParseFloat(strings.TrimSpace(*s.decay), 64)
	if err != nil {
		return nil, err
	}
	se, err := s.svc.SetDecay(decay)
	if err != nil {
		return nil, err
	}
	if tz := strings.TrimSpace(*s.timezone); tz != se.Timezone {
		return s.svc.SetTimezone(tz)
	}
	return se, nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()))
	}
	if s.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", errorStyle.Render(s.err.Error())))
	}
	if s.season == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Loading...")))
	}

	field := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(18).Render(label), highlightStyle.Render(value))
	}
	rows := []string{
		title,
		"",
		field("Season", s.season.Name),
		field("Started", s.season.StartDate.Format("2006-01-02 15:04 MST")),
		field("Daily decay", formatLP(s.season.DailyDecay)+" LP"),
		field("Time zone", s.season.Timezone),
		"",
		mutedStyle.Render("Press enter to edit"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
