package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"time_tracker/internal/timelog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(ms)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu       sync.Mutex
	infos    []string
	errs     []string
	statuses []Status
}

func (r *recorder) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, msg)
}

func (r *recorder) Render(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *recorder) lastStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

type fixture struct {
	tracker *Tracker
	clock   *fakeClock
	rec     *recorder
	store   *timelog.Store
	path    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	clock := newFakeClock(1700000000000)
	rec := &recorder{}
	store := timelog.NewStore(dir, "", nil)
	tr := New(store, Options{
		TickInterval: time.Hour,
		Now:          clock.Now,
		Notifier:     rec,
		Renderer:     rec,
	})
	t.Cleanup(tr.Close)
	return &fixture{
		tracker: tr,
		clock:   clock,
		rec:     rec,
		store:   store,
		path:    filepath.Join(dir, timelog.DefaultFileName),
	}
}

func (f *fixture) content(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	return string(data)
}

func TestTracker_StartWritesTentativeEntry(t *testing.T) {
	f := newFixture(t)

	session, err := f.tracker.Start("Write docs")
	require.NoError(t, err)
	assert.Equal(t, "Write docs", session.Task)
	assert.True(t, f.tracker.Tracking())
	assert.True(t, f.tracker.ticker.Running())
	assert.Equal(t, "- TRACKING: 1700000000000 Write docs\n", f.content(t))

	entries, err := f.store.ParseAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, timelog.KindTentative, entries[0].Kind)
	assert.Equal(t, session.Start.UnixMilli(), entries[0].Start.UnixMilli())

	st := f.rec.lastStatus()
	assert.True(t, st.Tracking)
	assert.Equal(t, "Write docs", st.Task)
}

func TestTracker_StartStopFinalizes(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Start("Write docs")
	require.NoError(t, err)
	f.clock.Advance(3661*time.Second + 900*time.Millisecond)

	res, err := f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopLogged, res.Outcome)
	assert.Equal(t, 3661*time.Second, res.Elapsed)
	assert.False(t, f.tracker.Tracking())
	assert.False(t, f.tracker.ticker.Running())

	assert.Equal(t, "- 2023-11-14 01:01 Write docs\n", f.content(t))
	entries, err := f.store.ParseAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, timelog.KindFinalized, entries[0].Kind)
	assert.Equal(t, "Write docs", entries[0].Task)

	assert.Contains(t, f.rec.infos, "Logged task: Write docs")
	assert.False(t, f.rec.lastStatus().Tracking)
}

func TestTracker_StopBeforeMinimumDiscards(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, os.WriteFile(f.path, []byte("- 2023-11-13 00:30 yesterday\n"), 0o644))
	_, err := f.tracker.Start("blink")
	require.NoError(t, err)
	f.clock.Advance(999 * time.Millisecond)

	res, err := f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopDiscarded, res.Outcome)
	assert.False(t, f.tracker.Tracking())
	assert.False(t, f.tracker.ticker.Running())
	assert.Equal(t, "- 2023-11-13 00:30 yesterday\n", f.content(t))
	require.NotEmpty(t, f.rec.infos)
	assert.True(t, strings.HasPrefix(f.rec.infos[len(f.rec.infos)-1], "Did not log task"))

	next := New(f.store, Options{TickInterval: time.Hour})
	defer next.Close()
	ok, err := next.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, next.Tracking())
}

func TestTracker_NoMinimumLogsShortSessions(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock(1700000000000)
	store := timelog.NewStore(dir, "", nil)
	tr := New(store, Options{TickInterval: time.Hour, Now: clock.Now, MinimumLogging: NoMinimumLogging})
	defer tr.Close()

	_, err := tr.Start("blink")
	require.NoError(t, err)
	clock.Advance(300 * time.Millisecond)

	res, err := tr.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopLogged, res.Outcome)
	data, err := os.ReadFile(filepath.Join(dir, timelog.DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "- 2023-11-14 00:00 blink\n", string(data))
}

func TestTracker_StopWhenIdle(t *testing.T) {
	f := newFixture(t)

	res, err := f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopNotTracking, res.Outcome)
	assert.Equal(t, []string{"Not tracking a task"}, f.rec.infos)
	_, statErr := os.Stat(f.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTracker_StartEmptyTaskIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Start("   ")
	assert.ErrorIs(t, err, timelog.ErrInvalidTask)
	assert.False(t, f.tracker.Tracking())
	assert.Empty(t, f.rec.statuses)
}

func TestTracker_StartWithoutWorkspace(t *testing.T) {
	tr := New(timelog.NewStore("", "", nil), Options{TickInterval: time.Hour})
	defer tr.Close()

	assert.False(t, tr.CanTrack())
	_, err := tr.Start("task")
	assert.ErrorIs(t, err, timelog.ErrNoWorkspace)
	assert.False(t, tr.Tracking())
}

func TestTracker_StartWhileTrackingStopsPrevious(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Start("first")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	second, err := f.tracker.Start("second")
	require.NoError(t, err)
	assert.Equal(t, "second", f.tracker.Status().Task)
	assert.True(t, f.tracker.ticker.Running())

	want := "- 2023-11-14 00:02 first\n" + timelog.TentativeLine("second", second.Start) + "\n"
	assert.Equal(t, want, f.content(t))
}

func TestTracker_TaskLineBreaksAreFlattened(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Start("one\ntwo")
	require.NoError(t, err)
	assert.Equal(t, "- TRACKING: 1700000000000 one two\n", f.content(t))
}

func TestTracker_RestoreAfterCrash(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path, []byte("- 2023-11-13 00:30 yesterday\n- TRACKING: 1700000000000 Write docs\n"), 0o644))
	f.clock.Advance(90 * time.Second)

	ok, err := f.tracker.Restore()
	require.NoError(t, err)
	require.True(t, ok)

	st := f.tracker.Status()
	assert.True(t, st.Tracking)
	assert.Equal(t, "Write docs", st.Task)
	assert.Equal(t, int64(1700000000000), st.Start.UnixMilli())
	assert.Equal(t, 90*time.Second, st.Elapsed)
	assert.True(t, f.tracker.ticker.Running())
	assert.Contains(t, f.rec.infos, "Resumed tracking: Write docs")

	// restore does not rewrite the file, and stop finalizes the restored line
	assert.Equal(t, "- 2023-11-13 00:30 yesterday\n- TRACKING: 1700000000000 Write docs\n", f.content(t))
	_, err = f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, "- 2023-11-13 00:30 yesterday\n- 2023-11-14 00:01 Write docs\n", f.content(t))
}

func TestTracker_RestoreSilent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, timelog.DefaultFileName), []byte("- TRACKING: 5 quiet\n"), 0o644))
	rec := &recorder{}
	tr := New(timelog.NewStore(dir, "", nil), Options{TickInterval: time.Hour, Notifier: rec, SilentRestore: true})
	defer tr.Close()

	ok, err := tr.Restore()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rec.infos)
}

func TestTracker_RestoreMissingFile(t *testing.T) {
	f := newFixture(t)

	ok, err := f.tracker.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.tracker.Tracking())
	assert.Empty(t, f.rec.errs)
}

func TestTracker_RestoreMalformed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path, []byte("- TRACKING: abc Write docs\n"), 0o644))

	ok, err := f.tracker.Restore()
	assert.False(t, ok)
	assert.ErrorIs(t, err, timelog.ErrMalformedEntry)
	assert.False(t, f.tracker.Tracking())
	assert.False(t, f.tracker.ticker.Running())
	require.Len(t, f.rec.errs, 1)
}

func TestTracker_RestoreEntryWithoutTask(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path, []byte("- TRACKING: 1700000000000\n"), 0o644))

	ok, err := f.tracker.Restore()
	assert.False(t, ok)
	assert.ErrorIs(t, err, timelog.ErrMalformedEntry)
	assert.False(t, f.tracker.Tracking())
	require.Len(t, f.rec.errs, 1)

	res, err := f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopNotTracking, res.Outcome)
	assert.Equal(t, "- TRACKING: 1700000000000\n", f.content(t))
}

func TestTracker_RestoreWhileTrackingIsNoop(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Start("live")
	require.NoError(t, err)

	ok, err := f.tracker.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "live", f.tracker.Status().Task)
}

func TestTracker_FinalizeMissingTentativeStillLogs(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Start("edited away")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.path, []byte("# hand edited\n"), 0o644))
	f.clock.Advance(5 * time.Minute)

	res, err := f.tracker.Stop()
	require.NoError(t, err)
	assert.Equal(t, StopLogged, res.Outcome)
	assert.Equal(t, "# hand edited\n- 2023-11-14 00:05 edited away\n", f.content(t))
}

type failingStore struct {
	appendErr   error
	finalizeErr error
	discardErr  error
}

func (s failingStore) Path() (string, error) { return "/nowhere/time-tracking.md", nil }

func (s failingStore) Append(string, time.Time) error { return s.appendErr }

func (s failingStore) Finalize(timelog.Session, time.Duration) error { return s.finalizeErr }

func (s failingStore) Discard(timelog.Session) error { return s.discardErr }

func (s failingStore) FindLastTentative() (timelog.Entry, bool, error) {
	return timelog.Entry{}, false, nil
}

func TestTracker_AppendFailureKeepsTracking(t *testing.T) {
	rec := &recorder{}
	tr := New(failingStore{appendErr: errors.New("disk full")}, Options{TickInterval: time.Hour, Notifier: rec})
	defer tr.Close()

	_, err := tr.Start("task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, tr.Tracking())
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0], "Failed to write tentative log entry")
}

func TestTracker_FinalizeFailureStillIdles(t *testing.T) {
	clock := newFakeClock(0)
	rec := &recorder{}
	tr := New(failingStore{finalizeErr: errors.New("read-only")}, Options{
		TickInterval: time.Hour,
		Now:          clock.Now,
		Notifier:     rec,
	})
	defer tr.Close()

	_, err := tr.Start("task")
	require.NoError(t, err)
	clock.Advance(time.Minute)

	res, err := tr.Stop()
	require.Error(t, err)
	assert.Equal(t, StopFailed, res.Outcome)
	assert.False(t, tr.Tracking())
	assert.False(t, tr.ticker.Running())
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0], "Failed to finalize log entry")
}

func TestTracker_DiscardFailureStillIdles(t *testing.T) {
	rec := &recorder{}
	tr := New(failingStore{discardErr: errors.New("read-only")}, Options{TickInterval: time.Hour, Notifier: rec})
	defer tr.Close()

	_, err := tr.Start("task")
	require.NoError(t, err)

	res, err := tr.Stop()
	require.Error(t, err)
	assert.Equal(t, StopDiscarded, res.Outcome)
	assert.False(t, tr.Tracking())
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0], "Failed to remove tentative log entry")
}

func TestTracker_TicksRenderStatus(t *testing.T) {
	rec := &recorder{}
	tr := New(timelog.NewStore(t.TempDir(), "", nil), Options{TickInterval: 2 * time.Millisecond, Renderer: rec})
	defer tr.Close()

	_, err := tr.Start("ticking")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.statuses) >= 5
	}, time.Second, time.Millisecond)

	_, err = tr.Stop()
	require.NoError(t, err)
	assert.False(t, tr.ticker.Running())
}
