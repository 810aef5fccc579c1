package timelog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	trackingPrefix = "TRACKING:"
	dateLayout     = "2006-01-02"
)

type Kind int

const (
	KindTentative Kind = iota
	KindFinalized
)

func (k Kind) String() string {
	switch k {
	case KindTentative:
		return "tentative"
	case KindFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry represents one line of the log file.
type Entry struct {
	Kind Kind
	Task string
	// Start is millisecond-precise for tentative entries and the UTC
	// calendar date for finalized ones.
	Start    time.Time
	Duration time.Duration
	Line     int
}

// Session is a running interval. ID only tags log records for one session;
// it never reaches the log file.
type Session struct {
	ID    string
	Task  string
	Start time.Time
}

func NewSession(task string, start time.Time) Session {
	return Session{
		ID:    uuid.NewString(),
		Task:  task,
		Start: time.UnixMilli(start.UnixMilli()),
	}
}

func TentativeLine(task string, start time.Time) string {
	return fmt.Sprintf("- %s %d %s", trackingPrefix, start.UnixMilli(), task)
}

func FinalizedLine(task string, start time.Time, d time.Duration) string {
	return fmt.Sprintf("- %s %s %s", start.UTC().Format(dateLayout), FormatDuration(d), task)
}

// FormatDuration renders d as zero-padded HH:MM, dropping seconds.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func isTentative(line string) bool {
	return strings.HasPrefix(line, "- "+trackingPrefix)
}

// ParseLine classifies a single log line. Lines that are not entries return
// ErrNotEntry; entry lines with bad fields return an *EntryError.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || !strings.HasPrefix(line, "- ") {
		return Entry{}, ErrNotEntry
	}

	parts := strings.Split(line, " ")

	if isTentative(line) {
		if len(parts) < 3 {
			return Entry{}, malformed(line, "missing timestamp")
		}
		ms, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Entry{}, malformed(line, "invalid timestamp %q", parts[2])
		}
		task := strings.Join(parts[3:], " ")
		if strings.TrimSpace(task) == "" {
			return Entry{}, malformed(line, "missing task")
		}
		return Entry{
			Kind:  KindTentative,
			Task:  task,
			Start: time.UnixMilli(ms),
		}, nil
	}

	if len(parts) < 3 {
		return Entry{}, malformed(line, "missing date or duration")
	}
	date, err := time.Parse(dateLayout, parts[1])
	if err != nil {
		return Entry{}, malformed(line, "invalid date %q", parts[1])
	}
	d, err := parseDuration(parts[2])
	if err != nil {
		return Entry{}, malformed(line, "invalid duration %q", parts[2])
	}
	task := strings.Join(parts[3:], " ")
	if strings.TrimSpace(task) == "" {
		return Entry{}, malformed(line, "missing task")
	}
	return Entry{
		Kind:     KindFinalized,
		Task:     task,
		Start:    date,
		Duration: d,
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM")
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("bad hours")
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("bad minutes")
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}
