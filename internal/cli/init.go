package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and the default season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			confirmed := true
			if force {
				confirmed, err = confirm(cmd, yes, "Erase every season and task and start over?")
				if err != nil {
					return err
				}
			}

			se, created, err := svc.Init(force, confirmed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "Created season %q (id %d, decay %s/day, %s)\n", se.Name, se.ID, formatLP(se.DailyDecay), se.Timezone)
				return nil
			}
			fmt.Fprintf(out, "Already initialized; active season is %q (id %d)\n", se.Name, se.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "erase all data first")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
