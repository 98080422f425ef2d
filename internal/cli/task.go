package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

func newAddCmd(a *app) *cobra.Command {
	var in ledger.NewTask
	var duration float64

	cmd := &cobra.Command{
		Use:   "add <description...>",
		Short: "Add a task to the active season",
		Example: `  lptrack add "Write report" -p work -d med
  lptrack add Gym --difficulty hard --completed --duration 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Description = strings.Join(args, " ")
			if cmd.Flags().Changed("duration") {
				in.DurationMinutes = &duration
			}

			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := svc.AddTask(in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added task %d: %s", t.ID, t.Description)
			if t.LPGain != nil {
				fmt.Fprintf(out, " (+%s LP)", formatLP(*t.LPGain))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Project, "project", "p", "", "project name")
	cmd.Flags().StringVarP(&in.Difficulty, "difficulty", "d", "", "easy, easy-med, med, med-hard, hard or 1-5")
	cmd.Flags().StringVar(&in.DOW, "dow", "", "day of week label (defaults to today)")
	cmd.Flags().BoolVar(&in.Completed, "completed", false, "record the task as already done")
	cmd.Flags().Float64Var(&duration, "duration", 0, "duration in minutes")
	cmd.Flags().StringVar(&in.Finish, "finish", "", "finish time for a completed task, e.g. \"2025-06-12 18:30\"")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks in the active season",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := svc.ListActiveTasks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No open tasks."))
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "DOW", "Task", "Project", "Difficulty", "State", "Started"},
				taskRows(tasks),
			))
			return nil
		},
	}
}

// taskAction builds a command that applies fn to the task named by the only argument.
func taskAction(a *app, use, short string, fn func(*ledger.Service, int64) (*store.Task, error), report func(*store.Task) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := fn(svc, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report(t))
			return nil
		},
	}
}

func newStartCmd(a *app) *cobra.Command {
	return taskAction(a, "start", "Start the clock on a task",
		(*ledger.Service).StartTask,
		func(t *store.Task) string {
			return fmt.Sprintf("Started task %d at %s", t.ID, t.StartTime.Format("15:04"))
		})
}

func newStopCmd(a *app) *cobra.Command {
	return taskAction(a, "stop", "Stop a running task without completing it",
		(*ledger.Service).StopTask,
		func(t *store.Task) string {
			return fmt.Sprintf("Stopped task %d at %s", t.ID, t.FinishTime.Format("15:04"))
		})
}

func newDoneCmd(a *app) *cobra.Command {
	return taskAction(a, "done", "Complete a task and award its LP",
		(*ledger.Service).CompleteTask,
		func(t *store.Task) string {
			msg := fmt.Sprintf("Completed task %d: %s", t.ID, t.Description)
			if t.LPGain != nil {
				msg += fmt.Sprintf(" (+%s LP)", formatLP(*t.LPGain))
			} else {
				msg += " " + mutedStyle.Render("(no difficulty, no LP)")
			}
			return msg
		})
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		desc, project, difficulty, dow, reflection, finish string
		duration                                           float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task; LP is recomputed for completed tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch ledger.TaskPatch
			flags := cmd.Flags()
			set := func(name string, dst **string, v *string) {
				if flags.Changed(name) {
					*dst = v
				}
			}
			set("task", &patch.Description, &desc)
			set("project", &patch.Project, &project)
			set("difficulty", &patch.Difficulty, &difficulty)
			set("dow", &patch.DOW, &dow)
			set("reflection", &patch.Reflection, &reflection)
			set("finish", &patch.Finish, &finish)
			if flags.Changed("duration") {
				patch.DurationMinutes = &duration
			}
			if patch == (ledger.TaskPatch{}) {
				return apperr.Validationf("nothing to update; pass at least one flag")
			}

			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := svc.UpdateTask(id, patch)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated task %d", t.ID)
			if t.LPGain != nil {
				fmt.Fprintf(out, " (LP %s)", formatLP(*t.LPGain))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&desc, "task", "", "new description")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project name")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "difficulty; empty clears it")
	cmd.Flags().StringVar(&dow, "dow", "", "day of week label")
	cmd.Flags().Float64Var(&duration, "duration", 0, "duration in minutes")
	cmd.Flags().StringVar(&reflection, "reflection", "", "free-form note")
	cmd.Flags().StringVar(&finish, "finish", "", "finish time, e.g. \"2025-06-12 18:30\"")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show completed tasks and the season status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return apperr.Validationf("--limit must not be negative")
			}
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := svc.ListCompletedTasks(limit)
			if err != nil {
				return err
			}
			rep, err := svc.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No completed tasks yet."))
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "DOW", "Task", "Project", "Difficulty", "Duration", "LP", "Finished", "Reflection"},
					logRows(tasks),
				))
			}
			fmt.Fprintln(out)
			renderStatus(out, rep.Season, rep.Status)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of tasks to show (0 for all)")
	return cmd
}
