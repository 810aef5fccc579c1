package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// ErrReported means the failure was already shown to the user; main only
// needs to exit non-zero.
var ErrReported = errors.New("reported")

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// consoleNotifier prints tracker notifications: info to stdout, errors to stderr.
type consoleNotifier struct {
	out io.Writer
	err io.Writer
}

func (n *consoleNotifier) Info(msg string) {
	fmt.Fprintln(n.out, infoStyle.Render(msg))
}

func (n *consoleNotifier) Error(msg string) {
	fmt.Fprintln(n.err, errorStyle.Render(msg))
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return ErrReported
}
