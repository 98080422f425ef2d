package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/lp"
	"github.com/sadopc/lptrack/internal/store"
)

type dashboardModel struct {
	svc    *ledger.Service
	timer  timerModel
	width  int
	height int

	report *ledger.Report
	tasks  []store.Task
	cursor int
	err    error

	formActive     bool
	form           *huh.Form
	formDesc       *string
	formProject    *string
	formDifficulty *string
}

func newDashboardModel(svc *ledger.Service, now func() time.Time) dashboardModel {
	desc, project, difficulty := "", "", ""
	return dashboardModel{
		svc:            svc,
		timer:          newTimerModel(svc, now),
		formDesc:       &desc,
		formProject:    &project,
		formDifficulty: &difficulty,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isIdle() bool    { return d.timer.isIdle }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	report  *ledger.Report
	tasks   []store.Task
	running *store.Task
	err     error
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		report, err := d.svc.Status()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		tasks, err := d.svc.ListActiveTasks()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		running, err := d.svc.InProgressTask()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		return dashboardDataMsg{report: report, tasks: tasks, running: running}
	}
}

func (d dashboardModel) selected() *store.Task {
	if d.cursor < 0 || d.cursor >= len(d.tasks) {
		return nil
	}
	return &d.tasks[d.cursor]
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.err = msg.err
		if msg.err != nil {
			return d, nil
		}
		d.report = msg.report
		d.tasks = msg.tasks
		if d.cursor >= len(d.tasks) {
			d.cursor = max(0, len(d.tasks)-1)
		}
		switch {
		case msg.running == nil:
			d.timer.clear()
		case msg.running.ID != d.timer.taskID():
			d.timer.track(msg.running)
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		d.timer.recordActivity()

		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.tasks)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Start):
			return d.startSelected()
		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		case key.Matches(msg, keys.Done):
			return d.completeSelected()
		case key.Matches(msg, keys.New):
			return d.showNewTaskForm()
		}
	}
	return d, nil
}

func (d dashboardModel) startSelected() (dashboardModel, tea.Cmd) {
	t := d.selected()
	if t == nil {
		return d, func() tea.Msg {
			return statusMsg{text: "No open tasks. Press n to add one.", isError: true}
		}
	}
	task, err := d.timer.start(t.ID)
	if err != nil {
		return d, func() tea.Msg { return errStatus(err) }
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return taskStartedMsg{task: task} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	task, err := d.timer.stop()
	if err != nil {
		return d, func() tea.Msg { return errStatus(err) }
	}
	if task == nil {
		return d, nil
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return taskStoppedMsg{task: task} },
	)
}

func (d dashboardModel) completeSelected() (dashboardModel, tea.Cmd) {
	t := d.selected()
	if t == nil {
		return d, nil
	}
	task, err := d.svc.CompleteTask(t.ID)
	if err != nil {
		return d, func() tea.Msg { return errStatus(err) }
	}
	if task.ID == d.timer.taskID() {
		d.timer.clear()
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return taskCompletedMsg{task: task} },
	)
}

func (d dashboardModel) showNewTaskForm() (dashboardModel, tea.Cmd) {
	*d.formDesc = ""
	*d.formProject = ""
	*d.formDifficulty = ""

	options := []huh.Option[string]{huh.NewOption("None", "")}
	for _, diff := range lp.Difficulties {
		options = append(options, huh.NewOption(string(diff), string(diff)))
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(d.formDesc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a task needs a description")
					}
					return nil
				}),
			huh.NewInput().Title("Project").Value(d.formProject),
			huh.NewSelect[string]().Title("Difficulty").Options(options...).Value(d.formDifficulty),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		_, err := d.svc.AddTask(ledger.NewTask{
			Description: *d.formDesc,
			Project:     *d.formProject,
			Difficulty:  *d.formDifficulty,
		})
		if err != nil {
			return d, func() tea.Msg { return errStatus(err) }
		}
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg { return statusMsg{text: "Added " + *d.formDesc} },
		)
	}

	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.formActive && d.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", d.form.View())
		return activePanelStyle.Width(w).Render(content)
	}
	if d.err != nil {
		return panelStyle.Width(w).Render(errorStyle.Render(d.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(w),
		d.renderStatusPanel(w),
		d.renderTaskPanel(w),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.currentElapsed())
		timeDisplay := timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator := successStyle.Render("●  IN PROGRESS")
		if d.timer.isIdle {
			timeDisplay = timerIdleStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("●  IDLE (still running)")
		}
		task := d.timer.task
		line := highlightStyle.Render(task.Description)
		if task.Project != "" {
			line += mutedStyle.Render(" / " + task.Project)
		}
		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, line)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  IDLE"),
		mutedStyle.Render("Select a task and press s to start"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderStatusPanel(w int) string {
	if d.report == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading status..."))
	}
	st := d.report.Status
	title := titleStyle.Render(d.report.Season.Name)
	rows := []string{
		fmt.Sprintf("%s  Net %s", title, netStyleFor(st.NetTotal)),
		fmt.Sprintf("  Gain %s  Decay %s (%d days x %s)  Today %s",
			successStyle.Render(formatLP(st.TotalGain)),
			errorStyle.Render(formatLP(st.TotalDecay)),
			st.DaysElapsed, formatLP(st.DailyDecay),
			accentStyle.Render(formatLP(st.TodayGain)),
		),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPanel(w int) string {
	title := titleStyle.Render("Open Tasks")
	if len(d.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No open tasks. Press n to add one."))
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for i, t := range d.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		state := lp.StateOf(t)
		marker := mutedStyle.Render(string(state))
		if state == lp.InProgress {
			marker = successStyle.Render(string(state))
		}
		row := fmt.Sprintf("%s%s %-3s %-28s %-12s %s",
			cursor, difficultyDot(t.Difficulty), t.DOW, t.Description, t.Project, marker)
		rows = append(rows, style.Render(row))
	}
	rows = append(rows, "", mutedStyle.Render("  s: start  x: stop  d: done  n: new"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
