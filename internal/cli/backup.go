package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and convert backups",
	}
	cmd.AddCommand(
		newBackupExportCmd(a),
		newBackupImportCmd(a),
		newBackupCSVCmd(a),
	)
	return cmd
}

// fileArg returns the first argument or the configured backup file.
func (a *app) fileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.BackupFile
}

func newBackupExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every season and task to a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			path := a.fileArg(args)
			snap, err := backup.ExportFile(st, path, a.now())
			if err != nil {
				return err
			}
			a.logger.Info("backup written", "path", path, "export_id", snap.ExportID)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d season(s) and %d task(s) to %s\n", len(snap.Seasons), len(snap.Tasks), path)
			return nil
		},
	}
}

func newBackupImportCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all data with the contents of a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.fileArg(args)
			ok, err := confirm(cmd, yes, fmt.Sprintf("Replace all seasons and tasks with %s?", path))
			if err != nil {
				return err
			}

			_, st, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := backup.ImportFile(st, path, ok)
			if err != nil {
				return err
			}
			a.logger.Info("backup restored", "path", path, "export_id", snap.ExportID)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d season(s) and %d task(s) from %s\n", len(snap.Seasons), len(snap.Tasks), path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newBackupCSVCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "csv [file]",
		Short: "Write every task to a CSV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			path := "lptrack.csv"
			if len(args) > 0 {
				path = args[0]
			}
			n, err := backup.ToCSV(st, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d task(s) to %s\n", n, path)
			return nil
		},
	}
}
