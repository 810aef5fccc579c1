package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"time_tracker/internal/timelog"
	"time_tracker/internal/tracker"
)

// EnvWorkspace names the environment variable that pins the project root.
const EnvWorkspace = "TIME_TRACKER_WORKSPACE"

type Config struct {
	Workspace       string
	FileName        string
	MinimumLogging  time.Duration
	TickInterval    time.Duration
	MaxStatusLength int
	Verbose         bool
}

func Default() Config {
	return Config{
		FileName:        timelog.DefaultFileName,
		MinimumLogging:  tracker.DefaultMinimumLogging,
		TickInterval:    tracker.DefaultTickInterval,
		MaxStatusLength: tracker.DefaultMaxTaskLength,
	}
}

// ResolveWorkspace finds the project root: the explicit path, then
// $TIME_TRACKER_WORKSPACE, then the nearest ancestor of the working directory
// holding a .git entry or the log file.
func (c Config) ResolveWorkspace() (string, error) {
	if c.Workspace != "" {
		return checkDir(c.Workspace)
	}
	if env := os.Getenv(EnvWorkspace); env != "" {
		return checkDir(env)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %v", timelog.ErrNoWorkspace, err)
	}
	return FindRoot(wd, ".git", c.fileName())
}

// FindRoot walks up from start until a directory contains one of markers.
func FindRoot(start string, markers ...string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timelog.ErrNoWorkspace, err)
	}
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no project root above %s", timelog.ErrNoWorkspace, start)
		}
		dir = parent
	}
}

func checkDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timelog.ErrNoWorkspace, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timelog.ErrNoWorkspace, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", timelog.ErrNoWorkspace, abs)
	}
	return abs, nil
}

func (c Config) fileName() string {
	if c.FileName == "" {
		return timelog.DefaultFileName
	}
	return c.FileName
}

// NewStore resolves the workspace and opens the log store. When no workspace
// resolves, the store is still returned (it cannot track) along with the error.
func (c Config) NewStore(logger *slog.Logger) (*timelog.Store, error) {
	root, err := c.ResolveWorkspace()
	if err != nil {
		logger.Debug("workspace not resolved", slog.String("error", err.Error()))
		return timelog.NewStore("", c.fileName(), logger), err
	}
	logger.Debug("workspace resolved", slog.String("root", root))
	return timelog.NewStore(root, c.fileName(), logger), nil
}

// TrackerOptions maps the config onto tracker options. A configured minimum
// of zero or less logs every session.
func (c Config) TrackerOptions() tracker.Options {
	minimum := c.MinimumLogging
	if minimum <= 0 {
		minimum = tracker.NoMinimumLogging
	}
	return tracker.Options{
		MinimumLogging: minimum,
		TickInterval:   c.TickInterval,
		MaxTaskLength:  c.MaxStatusLength,
	}
}

// NewLogger writes text records to w: debug when verbose, warnings otherwise.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
