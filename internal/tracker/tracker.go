package tracker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"time_tracker/internal/timelog"
	"time_tracker/internal/timer"
)

const (
	DefaultMinimumLogging = time.Second
	DefaultTickInterval   = 50 * time.Millisecond

	// NoMinimumLogging logs every session, however short.
	NoMinimumLogging time.Duration = -1
)

type Options struct {
	// MinimumLogging is the shortest session that gets finalized. Zero
	// selects DefaultMinimumLogging, a negative value logs everything.
	MinimumLogging time.Duration
	TickInterval   time.Duration
	MaxTaskLength  int
	// SilentRestore suppresses the "Resumed tracking" notification.
	SilentRestore bool

	Now      func() time.Time
	Notifier Notifier
	Renderer StatusRenderer
	Logger   *slog.Logger
}

type StopOutcome int

const (
	StopNotTracking StopOutcome = iota
	StopDiscarded
	StopLogged
	StopFailed
)

type StopResult struct {
	Outcome StopOutcome
	Session timelog.Session
	Elapsed time.Duration
}

// Tracker is the Idle/Tracking state machine. opMu serializes operations,
// including their file I/O; mu only guards the session so ticks never wait on
// the disk.
type Tracker struct {
	opMu sync.Mutex

	mu      sync.Mutex
	session *timelog.Session

	store  LogStore
	ticker *timer.Timer
	opts   Options
}

func New(store LogStore, opts Options) *Tracker {
	switch {
	case opts.MinimumLogging == 0:
		opts.MinimumLogging = DefaultMinimumLogging
	case opts.MinimumLogging < 0:
		opts.MinimumLogging = NoMinimumLogging
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.MaxTaskLength <= 0 {
		opts.MaxTaskLength = DefaultMaxTaskLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	t := &Tracker{store: store, opts: opts}
	t.ticker = timer.New(opts.TickInterval, t.refresh)
	return t
}

// CanTrack reports whether a project root is available for the log file.
func (t *Tracker) CanTrack() bool {
	_, err := t.store.Path()
	return err == nil
}

func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Status{}
	}
	return Status{
		Tracking: true,
		Task:     t.session.Task,
		Start:    t.session.Start,
		Elapsed:  t.opts.Now().Sub(t.session.Start),
	}
}

// View renders the current status with the configured task cap.
func (t *Tracker) View() StatusView {
	return Describe(t.Status(), t.opts.MaxTaskLength)
}

// Start begins tracking task. A running session is stopped first. The state
// is Tracking even when writing the tentative entry fails; that failure is
// notified and returned.
func (t *Tracker) Start(task string) (timelog.Session, error) {
	task = sanitizeTask(task)
	if strings.TrimSpace(task) == "" {
		return timelog.Session{}, timelog.ErrInvalidTask
	}
	if !t.CanTrack() {
		return timelog.Session{}, timelog.ErrNoWorkspace
	}

	t.opMu.Lock()
	defer t.opMu.Unlock()

	if t.Tracking() {
		if _, err := t.stop(); err != nil {
			t.opts.Logger.Warn("implicit stop failed", slog.String("error", err.Error()))
		}
	}

	session := timelog.NewSession(task, t.opts.Now())
	t.mu.Lock()
	t.session = &session
	t.mu.Unlock()

	t.ticker.Start()
	t.refresh()

	if err := t.store.Append(session.Task, session.Start); err != nil {
		t.opts.Notifier.Error(fmt.Sprintf("Failed to write tentative log entry: %v", err))
		return session, fmt.Errorf("append tentative entry: %w", err)
	}
	t.opts.Logger.Debug("tracking started",
		slog.String("session", session.ID), slog.String("task", session.Task))
	return session, nil
}

// Stop ends the current session. The tracker is Idle afterwards whatever
// happens to the log file.
func (t *Tracker) Stop() (StopResult, error) {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	return t.stop()
}

func (t *Tracker) stop() (StopResult, error) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		t.opts.Notifier.Info("Not tracking a task")
		return StopResult{Outcome: StopNotTracking}, nil
	}
	session := *t.session
	t.session = nil
	t.mu.Unlock()

	t.ticker.Stop()
	elapsed := t.opts.Now().Sub(session.Start).Truncate(time.Second)
	t.refresh()

	result := StopResult{Session: session, Elapsed: elapsed}
	if elapsed < t.opts.MinimumLogging {
		t.opts.Notifier.Info(fmt.Sprintf("Did not log task (less than %s)", t.opts.MinimumLogging))
		result.Outcome = StopDiscarded
		// a discarded session must not come back through Restore
		if err := t.store.Discard(session); err != nil {
			t.opts.Notifier.Error(fmt.Sprintf("Failed to remove tentative log entry: %v", err))
			return result, fmt.Errorf("discard entry: %w", err)
		}
		return result, nil
	}

	err := t.store.Finalize(session, elapsed)
	switch {
	case err == nil:
		t.opts.Notifier.Info("Logged task: " + session.Task)
	case errors.Is(err, timelog.ErrTentativeNotFound):
		t.opts.Notifier.Info("Logged task: " + session.Task + " (tentative entry was missing, appended)")
	default:
		t.opts.Notifier.Error(fmt.Sprintf("Failed to finalize log entry: %v", err))
		result.Outcome = StopFailed
		return result, fmt.Errorf("finalize entry: %w", err)
	}

	t.opts.Logger.Debug("tracking stopped",
		slog.String("session", session.ID), slog.Duration("elapsed", elapsed))
	result.Outcome = StopLogged
	return result, nil
}

// Restore adopts the newest unfinalized entry as the running session. The
// log file is left untouched.
func (t *Tracker) Restore() (bool, error) {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	if t.Tracking() {
		return false, nil
	}

	entry, ok, err := t.store.FindLastTentative()
	if err != nil {
		if errors.Is(err, timelog.ErrNoWorkspace) {
			return false, err
		}
		t.opts.Notifier.Error(fmt.Sprintf("Failed to restore tracking: %v", err))
		return false, fmt.Errorf("restore: %w", err)
	}
	if !ok {
		return false, nil
	}

	session := timelog.NewSession(entry.Task, entry.Start)
	t.mu.Lock()
	t.session = &session
	t.mu.Unlock()

	t.ticker.Start()
	t.refresh()

	if !t.opts.SilentRestore {
		t.opts.Notifier.Info("Resumed tracking: " + session.Task)
	}
	t.opts.Logger.Debug("tracking restored",
		slog.String("session", session.ID), slog.Int("line", entry.Line))
	return true, nil
}

// Close cancels the refresh tick. A running session stays in the log and
// can be restored later.
func (t *Tracker) Close() {
	t.ticker.Stop()
}

func (t *Tracker) refresh() {
	t.opts.Renderer.Render(t.Status())
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func sanitizeTask(task string) string {
	return lineBreaks.Replace(task)
}
