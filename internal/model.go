package internal

import (
	"errors"

	"time_tracker/internal/timelog"
	"time_tracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
)

type MsgTick struct{}

// History is the read side of the log the view needs.
type History interface {
	ParseAll() ([]timelog.Entry, error)
}

type Model struct {
	tracker *tracker.Tracker
	history History

	// Task prompt state (shown after pressing s)
	ShowTaskInput bool
	TaskInput     string

	// History viewer state
	ShowLogView   bool
	LogViewScroll int
	Entries       []timelog.Entry

	Message    string
	MessageErr bool
	Width      int
}

// NewModel builds an empty UI model. The tracker is attached afterwards
// because the model is also the tracker's notifier.
func NewModel() *Model {
	return &Model{}
}

func (m *Model) Attach(t *tracker.Tracker, history History) {
	m.tracker = t
	m.history = history
}

func (m *Model) Info(msg string) {
	m.Message = msg
	m.MessageErr = false
}

func (m *Model) Error(msg string) {
	m.Message = msg
	m.MessageErr = true
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.ShowTaskInput {
		return m.taskInputView()
	}
	if m.ShowLogView {
		return m.allLogsView()
	}
	return m.mainView()
}

// RefreshHistory rereads the log file. Without a workspace the list is empty.
func (m *Model) RefreshHistory() {
	entries, err := m.history.ParseAll()
	if errors.Is(err, timelog.ErrNoWorkspace) {
		m.Entries = nil
		return
	}
	if err != nil {
		m.Error("Failed to read log file: " + err.Error())
		m.Entries = nil
		return
	}
	m.Entries = entries
	if m.LogViewScroll > maxScroll(len(entries)) {
		m.LogViewScroll = maxScroll(len(entries))
	}
}

func (m *Model) start(task string) {
	if !m.tracker.CanTrack() {
		m.Info(NoWorkspaceMessage)
		return
	}
	// an empty name is a no-op and other failures are already notified
	m.tracker.Start(task)
	m.RefreshHistory()
}

func (m *Model) stop() {
	m.tracker.Stop()
	m.RefreshHistory()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowTaskInput {
		return m.handleTaskInput(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "s":
		if !m.tracker.CanTrack() {
			m.Info(NoWorkspaceMessage)
			break
		}
		m.ShowTaskInput = true
		m.TaskInput = ""
	case "x":
		m.stop()
	case "enter":
		// the status bar action
		if m.tracker.View().Command == tracker.CommandStop {
			m.stop()
		} else if m.tracker.CanTrack() {
			m.ShowTaskInput = true
			m.TaskInput = ""
		} else {
			m.Info(NoWorkspaceMessage)
		}
	case "r":
		m.RefreshHistory()
	case "l":
		m.ShowLogView = !m.ShowLogView
		if m.ShowLogView {
			m.RefreshHistory()
			m.LogViewScroll = 0
		}
	case "esc":
		m.ShowLogView = false
	case "up", "k":
		if m.LogViewScroll > 0 {
			m.LogViewScroll--
		}
	case "down", "j":
		if m.LogViewScroll < maxScroll(len(m.Entries)) {
			m.LogViewScroll++
		}
	}
	return m, nil
}

func (m *Model) handleTaskInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.ShowTaskInput = false
		m.TaskInput = ""
	case tea.KeyEnter:
		task := m.TaskInput
		m.ShowTaskInput = false
		m.TaskInput = ""
		m.start(task)
	case tea.KeyBackspace:
		runes := []rune(m.TaskInput)
		if len(runes) > 0 {
			m.TaskInput = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.TaskInput += " "
	case tea.KeyRunes:
		m.TaskInput += string(msg.Runes)
	}
	return m, nil
}

func maxScroll(n int) int {
	if n < 1 {
		return 0
	}
	return n - 1
}

// NoWorkspaceMessage is shown when no project root resolves.
const NoWorkspaceMessage = "Please open a folder or a workspace to track your time"
