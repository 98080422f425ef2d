package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

type seasonsModel struct {
	svc    *ledger.Service
	width  int
	height int

	seasons []store.Season
	cursor  int
	err     error

	formActive bool
	form       *huh.Form
	formName   *string
}

func newSeasonsModel(svc *ledger.Service) seasonsModel {
	name := ""
	return seasonsModel{svc: svc, formName: &name}
}

func (s *seasonsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type seasonsDataMsg struct {
	seasons []store.Season
	err     error
}

func (s seasonsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		seasons, err := s.svc.ListSeasons()
		return seasonsDataMsg{seasons: seasons, err: err}
	}
}

func (s seasonsModel) update(msg tea.Msg) (seasonsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case seasonsDataMsg:
		s.seasons, s.err = msg.seasons, msg.err
		if s.cursor >= len(s.seasons) {
			s.cursor = max(0, len(s.seasons)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.seasons)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(s.seasons) > 0 {
				return s.switchTo(s.seasons[s.cursor].ID)
			}
		case key.Matches(msg, keys.New):
			return s.showNewSeasonForm()
		}
	}
	return s, nil
}

func (s seasonsModel) switchTo(id int64) (seasonsModel, tea.Cmd) {
	se, err := s.svc.SwitchSeason(id)
	if err != nil {
		return s, func() tea.Msg { return errStatus(err) }
	}
	return s, tea.Batch(
		s.refresh(),
		func() tea.Msg { return seasonChangedMsg{season: se} },
	)
}

func (s seasonsModel) showNewSeasonForm() (seasonsModel, tea.Cmd) {
	*s.formName = ""

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Season name").Value(s.formName).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("a season needs a name")
					}
					return nil
				}),
			huh.NewNote().Description("The active season is archived and its decay stops."),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s seasonsModel) updateForm(msg tea.Msg) (seasonsModel, tea.Cmd) {
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
		se, err := s.svc.StartSeason(*s.formName)
		if err != nil {
			return s, func() tea.Msg { return errStatus(err) }
		}
		return s, tea.Batch(
			s.refresh(),
			func() tea.Msg { return seasonChangedMsg{season: se} },
		)
	}
	return s, cmd
}

func (s seasonsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Season"), "", s.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Seasons")
	if s.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", errorStyle.Render(s.err.Error())))
	}
	if len(s.seasons) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("No seasons yet. Press n to start one.")))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-2s %-24s %-17s %-17s %9s  %s", "", "Name", "Start", "End", "Decay", "Zone")))
	for i, se := range s.seasons {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if se.Active {
			marker = successStyle.Render("●")
		}
		end := "-"
		if se.EndDate != nil {
			end = se.EndDate.Format("2006-01-02 15:04")
		}
		row := fmt.Sprintf("%s%s  %-24s %-17s %-17s %9s  %s",
			cursor, marker, se.Name, se.StartDate.Format("2006-01-02 15:04"), end, formatLP(se.DailyDecay), se.Timezone)
		rows = append(rows, style.Render(row))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: make active  n: new season"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
