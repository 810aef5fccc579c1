package tracker

import (
	"time"

	"time_tracker/internal/timelog"
)

// Notifier surfaces messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// StatusRenderer receives a status snapshot on every tick and transition.
// Render is called from the tick goroutine and must not block.
type StatusRenderer interface {
	Render(Status)
}

// LogStore is the persistence the tracker drives. *timelog.Store satisfies it.
type LogStore interface {
	Path() (string, error)
	Append(task string, start time.Time) error
	Finalize(session timelog.Session, elapsed time.Duration) error
	Discard(session timelog.Session) error
	FindLastTentative() (timelog.Entry, bool, error)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}

type nopRenderer struct{}

func (nopRenderer) Render(Status) {}

// RendererFunc adapts a function to StatusRenderer.
type RendererFunc func(Status)

func (f RendererFunc) Render(st Status) { f(st) }
