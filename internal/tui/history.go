package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

// historyModel lists completed tasks of the active season, newest first.
type historyModel struct {
	svc    *ledger.Service
	width  int
	height int

	tasks  []store.Task
	cursor int
	err    error

	formActive     bool
	form           *huh.Form
	formReflection *string
	editingID      int64
}

func newHistoryModel(svc *ledger.Service) historyModel {
	reflection := ""
	return historyModel{svc: svc, formReflection: &reflection}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	tasks []store.Task
	err   error
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := h.svc.ListCompletedTasks(0)
		return historyDataMsg{tasks: tasks, err: err}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case historyDataMsg:
		h.tasks, h.err = msg.tasks, msg.err
		if h.cursor >= len(h.tasks) {
			h.cursor = max(0, len(h.tasks)-1)
		}
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.tasks)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Reflect), key.Matches(msg, keys.Enter):
			if len(h.tasks) > 0 {
				return h.showReflectionForm()
			}
		}
	}
	return h, nil
}

func (h historyModel) showReflectionForm() (historyModel, tea.Cmd) {
	t := h.tasks[h.cursor]
	*h.formReflection = t.Reflection
	h.editingID = t.ID

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Reflection on " + t.Description).Value(h.formReflection),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		h.formActive = false
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		h.form = nil
		reflection := *h.formReflection
		if _, err := h.svc.UpdateTask(h.editingID, ledger.TaskPatch{Reflection: &reflection}); err != nil {
			return h, func() tea.Msg { return errStatus(err) }
		}
		return h, h.refresh()
	}
	return h, cmd
}

func (h historyModel) view() string {
	w := h.width - 4

	if h.formActive && h.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Reflection"), "", h.form.View()),
		)
	}

	title := titleStyle.Render("Completed Tasks")
	if h.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", errorStyle.Render(h.err.Error())))
	}
	if len(h.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Nothing completed yet.")))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-28s %-12s %-9s %8s %9s  %s", "Day", "Task", "Project", "Difficulty", "Minutes", "LP", "Finished")))

	// Keep the cursor inside the visible window.
	visible := max(1, h.height-10)
	start := 0
	if h.cursor >= visible {
		start = h.cursor - visible + 1
	}
	end := min(len(h.tasks), start+visible)

	for i := start; i < end; i++ {
		t := h.tasks[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		finished := "-"
		if t.FinishTime != nil {
			finished = t.FinishTime.Format("Jan 02 15:04")
		}
		row := fmt.Sprintf("%s%-3s %-28s %-12s %-9s %8.0f %9s  %s",
			cursor, t.DOW, t.Description, t.Project, t.Difficulty,
			lp.ResolveDuration(t, nil), formatGain(t.LPGain), finished)
		rows = append(rows, style.Render(row))
		if t.Reflection != "" && i == h.cursor {
			rows = append(rows, mutedStyle.Render("     "+t.Reflection))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  r: reflect  ↑/↓: move"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
