package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"time_tracker/internal"
	"time_tracker/internal/report"
	"time_tracker/internal/timelog"
	"time_tracker/internal/tracker"
)

const (
	groupByTask = "task"
	groupByDay  = "day"
)

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "log",
		Aliases: []string{"history", "refresh"},
		Short:   "List the sessions in the log file",
		Args:    cobra.NoArgs,
		RunE:    a.runLog,
	}
}

func newReportCmd(a *app) *cobra.Command {
	var by, since string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Sum logged time per task or per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(by, since)
		},
	}
	cmd.Flags().StringVar(&by, "by", groupByTask, "group by task or day")
	cmd.Flags().StringVar(&since, "since", "", "only sessions started on or after this date (YYYY-MM-DD)")
	return cmd
}

func (a *app) runLog(cmd *cobra.Command, args []string) error {
	entries, ok, err := a.readEntries()
	if !ok {
		return err
	}
	fmt.Fprint(a.stdout, internal.RenderHistory(entries))
	return nil
}

func (a *app) runReport(by, since string) error {
	if by != groupByTask && by != groupByDay {
		return fmt.Errorf("invalid --by %q, expected %s or %s", by, groupByTask, groupByDay)
	}
	from, err := report.ParseSince(since)
	if err != nil {
		return err
	}

	entries, ok, err := a.readEntries()
	if !ok {
		return err
	}

	repo, err := report.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Load(entries); err != nil {
		return err
	}

	var totals []report.Total
	header := "Time per task"
	if by == groupByDay {
		header = "Time per day"
		totals, err = repo.TotalsByDay(from)
	} else {
		totals, err = repo.TotalsByTask(from)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, internal.RenderTotals(header, totals))
	if len(totals) == 0 {
		a.println()
	}
	return nil
}

// readEntries restores any interrupted session, then parses the log. ok is
// false when the caller should return err as is; a missing workspace prints
// the hint and yields ok=false with a nil error.
func (a *app) readEntries() ([]timelog.Entry, bool, error) {
	logger := a.logger()
	t, store := a.openTracker(logger, tracker.Options{Notifier: a.console(), SilentRestore: true})
	defer t.Close()

	entries, err := store.ParseAll()
	switch {
	case errors.Is(err, timelog.ErrNoWorkspace):
		a.println(internal.NoWorkspaceMessage)
		return nil, false, nil
	case err != nil:
		logger.Debug("parse log", slog.String("error", err.Error()))
		return nil, false, err
	}
	return entries, true, nil
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive tracker",
		Args:  cobra.NoArgs,
		RunE:  a.runUI,
	}
}

func (a *app) runUI(cmd *cobra.Command, args []string) error {
	logger := a.logger()
	if !a.cfg.Verbose {
		// stderr belongs to the terminal UI
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	model := internal.NewModel()
	ticks := internal.NewTickRenderer()
	t, store := a.openTracker(logger, tracker.Options{Notifier: model, Renderer: ticks})
	defer t.Close()

	model.Attach(t, store)
	model.RefreshHistory()
	return internal.Run(model, ticks)
}
