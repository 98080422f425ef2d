// Package cli wires the lptrack commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/lptrack/internal/apperr"
	"github.com/sadopc/lptrack/internal/config"
	"github.com/sadopc/lptrack/internal/ledger"
	"github.com/sadopc/lptrack/internal/store"
)

// app holds state shared by every command of one invocation.
type app struct {
	cfgPath string
	dbPath  string
	verbose bool

	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lptrack",
		Short: "Track tasks and Life Points across seasons",
		Long: `lptrack records tasks and the time spent on them, and scores them in
Life Points (LP). Points are earned per quarter hour weighted by difficulty
and decay by a fixed amount for every full day of the active season.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database file (default from config, then ~/.config/lptrack/lptrack.db)")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/lptrack/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every change to stderr")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newStartCmd(a),
		newStopCmd(a),
		newDoneCmd(a),
		newUpdateCmd(a),
		newLogCmd(a),
		newStatusCmd(a),
		newPlotCmd(a),
		newSeasonCmd(a),
		newBackupCmd(a),
		newBoardCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the root command and reports any error on stderr.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			a.cfgPath = p
		}
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "lptrack",
		Level:  level,
	})
	a.logger.Debug("config loaded", "path", a.cfgPath, "tz", cfg.Timezone, "decay", cfg.DefaultDecay)
	return nil
}

func (a *app) resolveDBPath() (string, error) {
	if a.dbPath != "" {
		return a.dbPath, nil
	}
	if a.cfg != nil && a.cfg.DBPath != "" {
		return a.cfg.DBPath, nil
	}
	return store.DefaultDBPath()
}

// openService opens the database. The returned cleanup closes it.
func (a *app) openService() (*ledger.Service, *store.Store, func(), error) {
	path, err := a.resolveDBPath()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.logger.Debug("database opened", "path", path)

	svc := ledger.New(st,
		ledger.WithLogger(a.logger),
		ledger.WithClock(a.now),
		ledger.WithDefaults(a.cfg.DefaultDecay, a.cfg.Timezone),
	)
	return svc, st, func() { st.Close() }, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid id %q", arg)
	}
	return id, nil
}

var kindLabels = map[apperr.Kind]string{
	apperr.Validation:           "invalid input",
	apperr.NotFound:             "not found",
	apperr.State:                "state error",
	apperr.ConfirmationRequired: "confirmation required",
	apperr.Format:               "bad backup",
}

func printError(w io.Writer, err error) {
	label := "error"
	if kind, ok := apperr.KindOf(err); ok {
		label = kindLabels[kind]
	}
	fmt.Fprintln(w, errorStyle.Render(label+": ")+err.Error())
}
