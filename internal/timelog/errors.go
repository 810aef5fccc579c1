package timelog

import (
	"errors"
	"fmt"
)

var (
	ErrNoWorkspace       = errors.New("no workspace folder")
	ErrInvalidTask       = errors.New("task name is empty")
	ErrNotEntry          = errors.New("not a log entry")
	ErrMalformedEntry    = errors.New("malformed log entry")
	ErrTentativeNotFound = errors.New("tentative entry not found")
)

// EntryError describes a log line that looks like an entry but cannot be parsed.
type EntryError struct {
	Line int
	Text string
	Msg  string
}

func (e *EntryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedEntry, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedEntry, e.Msg)
}

func (e *EntryError) Unwrap() error { return ErrMalformedEntry }

func malformed(text, format string, args ...any) error {
	return &EntryError{Text: text, Msg: fmt.Sprintf(format, args...)}
}
