package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"time_tracker/internal/config"
	"time_tracker/internal/timelog"
	"time_tracker/internal/tracker"
)

// app carries what every command shares: the flags and the streams.
type app struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the time-tracker command tree.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:   "time-tracker",
		Short: "Track named work sessions in a plain-text log",
		Long: `time-tracker records work sessions in time-tracking.md at the project root.

A started session is written as a tentative line and rewritten with its
duration when it stops, so an interrupted session is resumed on the next run.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.stdin = cmd.InOrStdin()
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfg.Workspace, "workspace", "w", "", "project root (default: $"+config.EnvWorkspace+" or nearest directory with .git or the log file)")
	flags.StringVarP(&a.cfg.FileName, "file", "f", a.cfg.FileName, "log file name inside the workspace")
	flags.DurationVar(&a.cfg.MinimumLogging, "min", a.cfg.MinimumLogging, "shortest session that gets logged")
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newStartCmd(a),
		newStopCmd(a),
		newStatusCmd(a),
		newLogCmd(a),
		newReportCmd(a),
		newUICmd(a),
	)
	return root
}

// Execute runs the CLI and returns the first error for main to report.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) logger() *slog.Logger {
	return a.cfg.NewLogger(a.stderr)
}

// openTracker resolves the workspace, opens the store and restores any
// interrupted session. A missing workspace is not an error here: the tracker
// just cannot track. A restore failure leaves the tracker idle.
func (a *app) openTracker(logger *slog.Logger, opts tracker.Options) (*tracker.Tracker, *timelog.Store) {
	// the store comes back even without a workspace
	store, _ := a.cfg.NewStore(logger)

	base := a.cfg.TrackerOptions()
	opts.MinimumLogging = base.MinimumLogging
	opts.TickInterval = base.TickInterval
	opts.MaxTaskLength = base.MaxTaskLength
	opts.Logger = logger

	t := tracker.New(store, opts)
	if _, err := t.Restore(); err != nil {
		// already notified; the tracker stays idle
		logger.Debug("restore failed", slog.String("error", err.Error()))
	}
	return t, store
}

func (a *app) console() *consoleNotifier {
	return &consoleNotifier{out: a.stdout, err: a.stderr}
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.stdout, args...)
}
