package internal

import (
	"fmt"
	"strings"
	"time"

	"time_tracker/internal/report"
	"time_tracker/internal/timelog"
	"time_tracker/internal/tracker"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	statusIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	statusRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	logTrackingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

const (
	recentLogs    = 5
	logViewHeight = 15
	viewWidth     = 80
)

// HistoryRow is one rendered log entry: when, how long, what.
type HistoryRow struct {
	When   string
	Length string
	Task   string
	Open   bool
}

func HistoryRows(entries []timelog.Entry) []HistoryRow {
	rows := make([]HistoryRow, 0, len(entries))
	for _, e := range entries {
		if e.Kind == timelog.KindTentative {
			rows = append(rows, HistoryRow{
				When:   e.Start.Local().Format("2006-01-02 15:04"),
				Length: "tracking",
				Task:   e.Task,
				Open:   true,
			})
			continue
		}
		rows = append(rows, HistoryRow{
			When:   e.Start.Format("2006-01-02"),
			Length: timelog.FormatDuration(e.Duration),
			Task:   e.Task,
		})
	}
	return rows
}

func formatRow(r HistoryRow) string {
	length := fmt.Sprintf("%-8s", r.Length)
	if r.Open {
		length = logTrackingStyle.Render(length)
	}
	return fmt.Sprintf("%s  %s  %s", logTimeStyle.Render(fmt.Sprintf("%-16s", r.When)), length, r.Task)
}

// RenderHistory renders every entry, one per line.
func RenderHistory(entries []timelog.Entry) string {
	if len(entries) == 0 {
		return "No entries logged yet."
	}
	var sb strings.Builder
	for _, r := range HistoryRows(entries) {
		sb.WriteString(formatRow(r))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderTotals renders report totals with a header and a grand total.
func RenderTotals(header string, totals []report.Total) string {
	if len(totals) == 0 {
		return "No finalized sessions."
	}
	var sb strings.Builder
	sb.WriteString(logHeaderStyle.Render(header))
	sb.WriteString("\n")

	var sessions int
	var sum time.Duration
	for _, t := range totals {
		sb.WriteString(fmt.Sprintf("  %s  %3d  %s\n", logTimeStyle.Render(fmt.Sprintf("%7s", timelog.FormatDuration(t.Duration))), t.Sessions, t.Key))
		sessions += t.Sessions
		sum += t.Duration
	}
	sb.WriteString(fmt.Sprintf("  %7s  %3d  total\n", timelog.FormatDuration(sum), sessions))
	return sb.String()
}

// RenderStatus renders the status indicator line.
func RenderStatus(v tracker.StatusView) string {
	if v.Command == tracker.CommandStop {
		return statusRunningStyle.Render(v.String())
	}
	return statusIdleStyle.Render(v.String())
}

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(viewWidth).Render("Time Tracker"))
	sb.WriteString("\n\n")

	view := m.tracker.View()
	sb.WriteString(boxStyle.Width(viewWidth - 4).Render(
		RenderStatus(view) + "\n" + helpStyle.Render(view.Tooltip+" (enter)"),
	))
	sb.WriteString("\n\n")

	if len(m.Entries) > 0 {
		sb.WriteString(logHeaderStyle.Render("Recent Logs"))
		sb.WriteString("\n")
		rows := HistoryRows(m.Entries)
		if len(rows) > recentLogs {
			rows = rows[len(rows)-recentLogs:]
		}
		for _, r := range rows {
			sb.WriteString(formatRow(r))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.messageView())
	sb.WriteString(helpStyle.Render("Start: s | Stop: x | Toggle: Enter | Refresh: r | History: l | Quit: q"))

	return sb.String()
}

func (m *Model) messageView() string {
	if m.Message == "" {
		return ""
	}
	if m.MessageErr {
		return errorStyle.Render(m.Message) + "\n\n"
	}
	return messageStyle.Render(m.Message) + "\n\n"
}

func (m *Model) taskInputView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(viewWidth).Render("Start Tracking"))
	sb.WriteString("\n\n")

	label := inputStyle.Render("→ Task: ")
	value := inputStyle.Render(m.TaskInput + "█")

	form := fmt.Sprintf(
		"%s%s\n\n%s",
		label, value,
		helpStyle.Render("Enter: Start | Esc: Cancel"),
	)

	return lipgloss.Place(
		viewWidth, 24,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Width(50).Render(form),
	)
}

func (m *Model) allLogsView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(viewWidth).Render("History"))
	sb.WriteString("\n\n")

	rows := HistoryRows(m.Entries)
	var body strings.Builder
	if len(rows) == 0 {
		body.WriteString("No entries logged yet.")
	}
	end := m.LogViewScroll + logViewHeight
	if end > len(rows) {
		end = len(rows)
	}
	for i := m.LogViewScroll; i < end; i++ {
		body.WriteString(formatRow(rows[i]))
		if i < end-1 {
			body.WriteString("\n")
		}
	}

	sb.WriteString(boxStyle.Width(viewWidth - 4).Render(body.String()))
	sb.WriteString("\n\n")
	sb.WriteString(m.messageView())
	sb.WriteString(helpStyle.Render(fmt.Sprintf("%d entries | Scroll: Up/Down | Refresh: r | Back: l/Esc | Quit: q", len(rows))))
	return sb.String()
}
