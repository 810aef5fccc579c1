package internal

import (
	"time_tracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
)

// TickRenderer turns tracker refreshes into MsgTick for the program. Render
// never blocks: refreshes that arrive while one is pending are dropped.
type TickRenderer struct {
	ch chan struct{}
}

func NewTickRenderer() *TickRenderer {
	return &TickRenderer{ch: make(chan struct{}, 1)}
}

func (r *TickRenderer) Render(tracker.Status) {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Run drives the terminal UI until the user quits.
func Run(m *Model, ticks *TickRenderer) error {
	p := tea.NewProgram(m, tea.WithAltScreen())

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticks.ch:
				p.Send(MsgTick{})
			}
		}
	}()

	_, err := p.Run()
	return err
}
