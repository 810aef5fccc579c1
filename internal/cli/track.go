package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"time_tracker/internal"
	"time_tracker/internal/tracker"
)

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start [task...]",
		Short: "Start tracking a task",
		Long: `Start tracking a task. The words after start form the task name; without
them the name is read from stdin. A running session is stopped and logged first.`,
		RunE: a.runStart,
	}
}

func newStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking and log the session",
		Args:  cobra.NoArgs,
		RunE:  a.runStop,
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
}

func (a *app) runStart(cmd *cobra.Command, args []string) error {
	t, _ := a.openTracker(a.logger(), tracker.Options{Notifier: a.console(), SilentRestore: true})
	defer t.Close()

	if !t.CanTrack() {
		a.println(internal.NoWorkspaceMessage)
		return nil
	}

	task := strings.Join(args, " ")
	if task == "" {
		var err error
		task, err = a.prompt("Enter task name: ")
		if err != nil {
			return fmt.Errorf("read task name: %w", err)
		}
	}
	if strings.TrimSpace(task) == "" {
		return nil
	}

	session, err := t.Start(task)
	if err != nil {
		return reported(err)
	}
	a.println(internal.RenderStatus(t.View()))
	a.println(fmt.Sprintf("Tracking since %s", session.Start.Local().Format("2006-01-02 15:04:05")))
	return nil
}

func (a *app) runStop(cmd *cobra.Command, args []string) error {
	t, _ := a.openTracker(a.logger(), tracker.Options{Notifier: a.console(), SilentRestore: true})
	defer t.Close()

	res, err := t.Stop()
	if err != nil {
		return reported(err)
	}
	if res.Outcome == tracker.StopLogged {
		a.println(fmt.Sprintf("%s  %s", tracker.FormatElapsed(res.Elapsed), res.Session.Task))
	}
	return nil
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	t, _ := a.openTracker(a.logger(), tracker.Options{Notifier: a.console(), SilentRestore: true})
	defer t.Close()

	a.println(internal.RenderStatus(t.View()))
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
