package cli

import (
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/tui"
)

func newBoardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "board",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the alt screen.
			a.logger = log.New(io.Discard)

			svc, st, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			exportDir := filepath.Dir(a.cfg.BackupFile)
			p := tea.NewProgram(tui.NewApp(svc, st, exportDir), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
