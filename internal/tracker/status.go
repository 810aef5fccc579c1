package tracker

import (
	"fmt"
	"time"
)

const DefaultMaxTaskLength = 57

const (
	CommandStart = "start"
	CommandStop  = "stop"
)

// Status is a snapshot of the tracker.
type Status struct {
	Tracking bool
	Task     string
	Start    time.Time
	Elapsed  time.Duration
}

// StatusView is what a status indicator shows and which command it triggers.
type StatusView struct {
	Icon    string
	Text    string
	Command string
	Tooltip string
}

// Describe renders st for a status indicator. It has no side effects.
func Describe(st Status, maxTaskLength int) StatusView {
	if !st.Tracking {
		return StatusView{
			Icon:    "●",
			Text:    FormatElapsed(0),
			Command: CommandStart,
			Tooltip: "Start tracking",
		}
	}
	return StatusView{
		Icon:    "■",
		Text:    FormatElapsed(st.Elapsed) + " " + TruncateTask(st.Task, maxTaskLength),
		Command: CommandStop,
		Tooltip: "Stop tracking",
	}
}

func (v StatusView) String() string {
	return v.Icon + " " + v.Text
}

// FormatElapsed renders d as zero-padded HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 1 {
		return "00:00:00"
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// TruncateTask cuts task to max runes and marks the cut with "...".
func TruncateTask(task string, max int) string {
	if max <= 0 {
		max = DefaultMaxTaskLength
	}
	runes := []rune(task)
	if len(runes) <= max {
		return task
	}
	return string(runes[:max]) + "..."
}
