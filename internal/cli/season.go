package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

func newSeasonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Manage seasons",
	}
	cmd.AddCommand(
		newSeasonStartCmd(a),
		newSeasonSwitchCmd(a),
		newSeasonListCmd(a),
		newSeasonCurrentCmd(a),
		newSeasonSetDecayCmd(a),
		newSeasonSetTimezoneCmd(a),
		newSeasonSetStartCmd(a),
		newSeasonRecalcCmd(a),
	)
	return cmd
}

// seasonAction runs fn against the service and prints the season it returns.
func seasonAction(a *app, cmd *cobra.Command, verb string, fn func(*ledger.Service) (*store.Season, error)) error {
	svc, _, cleanup, err := a.openService()
	if err != nil {
		return err
	}
	defer cleanup()

	se, err := fn(svc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s season %q (id %d)\n", verb, se.Name, se.ID)
	return nil
}

func newSeasonStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name...>",
		Short: "Archive the active season and start a new one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return seasonAction(a, cmd, "Started", func(svc *ledger.Service) (*store.Season, error) {
				return svc.StartSeason(name)
			})
		},
	}
}

func newSeasonSwitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id>",
		Short: "Make another season active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return seasonAction(a, cmd, "Switched to", func(svc *ledger.Service) (*store.Season, error) {
				return svc.SwitchSeason(id)
			})
		},
	}
}

func newSeasonListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all seasons",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			seasons, err := svc.ListSeasons()
			if err != nil {
				return err
			}
			if len(seasons) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No seasons; run `lptrack init`."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"", "ID", "Name", "Start", "End", "Decay/day", "Timezone"},
				seasonRows(seasons),
			))
			return nil
		},
	}
}

func newSeasonCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			se, err := svc.CurrentSeason()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (id %d)\n", titleStyle.Render(se.Name), se.ID)
			fmt.Fprintf(out, "  Started   %s\n", se.StartDate.Format(timeLayout))
			fmt.Fprintf(out, "  Decay     %s LP/day\n", formatLP(se.DailyDecay))
			fmt.Fprintf(out, "  Timezone  %s\n", se.Timezone)
			return nil
		},
	}
}

func newSeasonSetDecayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-decay <lp-per-day>",
		Short: "Set the daily decay of the active season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return apperr.Validationf("decay must be a number, got %q", args[0])
			}
			return seasonAction(a, cmd, "Updated decay of", func(svc *ledger.Service) (*store.Season, error) {
				return svc.SetDecay(v)
			})
		},
	}
}

func newSeasonSetTimezoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-timezone <iana-zone>",
		Short: "Set the timezone used for day boundaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return seasonAction(a, cmd, "Updated timezone of", func(svc *ledger.Service) (*store.Season, error) {
				return svc.SetTimezone(args[0])
			})
		},
	}
}

func newSeasonSetStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-start <datetime>",
		Short: "Move the start of the active season",
		Example: `  lptrack season set-start 2025-06-01
  lptrack season set-start "2025-06-01 08:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return seasonAction(a, cmd, "Moved start of", func(svc *ledger.Service) (*store.Season, error) {
				return svc.SetSeasonStart(args[0])
			})
		},
	}
}

func newSeasonRecalcCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute LP for every completed task in the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd, yes, "Recompute LP for every completed task?")
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Confirm("season recalc")
			}

			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.RecalculateSeason()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d task(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
