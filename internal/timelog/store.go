package timelog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultFileName = "time-tracking.md"

// Store reads and writes the line-oriented log file at the project root.
// It assumes a single process touches the file at a time.
type Store struct {
	root     string
	fileName string
	logger   *slog.Logger
}

// NewStore returns a store for root. An empty root yields a store whose
// operations fail with ErrNoWorkspace.
func NewStore(root, fileName string, logger *slog.Logger) *Store {
	if fileName == "" {
		fileName = DefaultFileName
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{root: root, fileName: fileName, logger: logger}
}

func (s *Store) Path() (string, error) {
	if s.root == "" {
		return "", ErrNoWorkspace
	}
	return filepath.Join(s.root, s.fileName), nil
}

// Append writes the tentative line for task started at start.
func (s *Store) Append(task string, start time.Time) error {
	path, err := s.Path()
	if err != nil {
		return err
	}

	if err := s.appendRaw(path, TentativeLine(task, start)); err != nil {
		return err
	}
	s.logger.Debug("tentative entry appended", slog.String("path", path), slog.String("task", task))
	return nil
}

// Finalize replaces the newest line equal to the session's tentative line
// with its finalized form. When no such line exists the finalized line is
// appended and the returned error wraps ErrTentativeNotFound.
func (s *Store) Finalize(session Session, elapsed time.Duration) error {
	path, err := s.Path()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read log file: %w", err)
	}

	tentative := TentativeLine(session.Task, session.Start)
	final := FinalizedLine(session.Task, session.Start, elapsed)

	lines := strings.Split(string(data), "\n")
	idx := lastIndexOf(lines, tentative)
	if idx < 0 {
		s.logger.Warn("tentative entry missing, appending finalized entry",
			slog.String("session", session.ID), slog.String("line", tentative))
		if err := s.appendRaw(path, final); err != nil {
			return err
		}
		return fmt.Errorf("%w: %q", ErrTentativeNotFound, tentative)
	}

	if strings.HasSuffix(lines[idx], "\r") {
		final += "\r"
	}
	lines[idx] = final

	if err := writeFileAtomic(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	s.logger.Debug("entry finalized",
		slog.String("session", session.ID), slog.Int("line", idx+1), slog.Duration("elapsed", elapsed))
	return nil
}

// Discard removes the newest line equal to the session's tentative line, so
// a session dropped below the logging minimum is not restored later. A
// missing line is not an error.
func (s *Store) Discard(session Session) error {
	path, err := s.Path()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read log file: %w", err)
	}

	tentative := TentativeLine(session.Task, session.Start)
	lines := strings.Split(string(data), "\n")
	idx := lastIndexOf(lines, tentative)
	if idx < 0 {
		s.logger.Debug("tentative entry already gone",
			slog.String("session", session.ID), slog.String("line", tentative))
		return nil
	}
	lines = append(lines[:idx], lines[idx+1:]...)

	if err := writeFileAtomic(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	s.logger.Debug("entry discarded", slog.String("session", session.ID), slog.Int("line", idx+1))
	return nil
}

// ParseAll returns every parseable entry in file order. A missing file is an
// empty log.
func (s *Store) ParseAll() ([]Entry, error) {
	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		e, err := ParseLine(line)
		if err != nil {
			if !errors.Is(err, ErrNotEntry) {
				s.logger.Debug("skipping malformed entry", slog.Int("line", i+1), slog.String("error", err.Error()))
			}
			continue
		}
		e.Line = i + 1
		entries = append(entries, e)
	}
	return entries, nil
}

// FindLastTentative returns the newest tentative entry. ok is false when the
// log is missing or has none.
func (s *Store) FindLastTentative() (Entry, bool, error) {
	lines, err := s.readLines()
	if err != nil {
		return Entry{}, false, err
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if !isTentative(lines[i]) {
			continue
		}
		e, err := ParseLine(lines[i])
		if err != nil {
			var entryErr *EntryError
			if errors.As(err, &entryErr) {
				entryErr.Line = i + 1
			}
			return Entry{}, false, err
		}
		e.Line = i + 1
		return e, true, nil
	}
	return Entry{}, false, nil
}

// lastIndexOf finds the newest line equal to target, ignoring a CR ending.
func lastIndexOf(lines []string, target string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSuffix(lines[i], "\r") == target {
			return i
		}
	}
	return -1
}

func (s *Store) readLines() ([]string, error) {
	path, err := s.Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

func (s *Store) appendRaw(path, line string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	needsNewline, err := missingTrailingNewline(f)
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	if needsNewline {
		line = "\n" + line
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
