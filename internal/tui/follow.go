// Package tui provides the terminal follow view for a running workflow.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/calebmorris/foreman/internal/orchestrator"
	"github.com/calebmorris/foreman/pkg/models"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#45B7D1"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// EventMsg wraps an orchestrator event for the follow view.
type EventMsg struct {
	Event orchestrator.Event
}

// StreamClosedMsg signals that the event channel was closed.
type StreamClosedMsg struct{}

// taskRow is one tracked task line in the view.
type taskRow struct {
	id          string
	description string
	workerID    string
	status      models.TaskStatus
}

// FollowModel is the bubbletea model that renders workflow progress from
// the orchestrator's event stream.
type FollowModel struct {
	request string
	events  <-chan orchestrator.Event

	spinner  spinner.Model
	rows     []taskRow
	rowIndex map[string]int

	done     bool
	quitting bool
	finalMsg string
	failed   bool
}

// NewFollowModel creates a follow view over the given event stream.
func NewFollowModel(request string, events <-chan orchestrator.Event) *FollowModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle

	return &FollowModel{
		request:  request,
		events:   events,
		spinner:  sp,
		rowIndex: make(map[string]int),
	}
}

// Init implements tea.Model.
func (m *FollowModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the next orchestrator event.
func (m *FollowModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Update implements tea.Model.
func (m *FollowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(msg.Event)
		if m.done {
			return m, tea.Quit
		}
		return m, m.waitForEvent()

	case StreamClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// apply folds one orchestrator event into the view state.
func (m *FollowModel) apply(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventTaskStarted:
		if _, ok := m.rowIndex[ev.TaskID]; !ok {
			m.rowIndex[ev.TaskID] = len(m.rows)
			m.rows = append(m.rows, taskRow{
				id:          ev.TaskID,
				description: ev.Message,
				workerID:    ev.WorkerID,
				status:      models.TaskStatusRunning,
			})
		}
	case orchestrator.EventTaskCompleted:
		m.setStatus(ev.TaskID, models.TaskStatusCompleted)
	case orchestrator.EventTaskFailed:
		m.setStatus(ev.TaskID, models.TaskStatusFailed)
	case orchestrator.EventWorkflowCompleted, orchestrator.EventWorkflowFailed,
		orchestrator.EventWorkflowCancelled, orchestrator.EventWorkflowIncomplete:
		m.done = true
		m.finalMsg = ev.Message
		m.failed = ev.Type == orchestrator.EventWorkflowFailed
	}
}

func (m *FollowModel) setStatus(taskID string, status models.TaskStatus) {
	if i, ok := m.rowIndex[taskID]; ok {
		m.rows[i].status = status
	}
}

// View implements tea.Model.
func (m *FollowModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("foreman"))
	b.WriteString(dimStyle.Render("  " + truncate(m.request, 70)))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString("  ")
		b.WriteString(m.statusGlyph(row.status))
		b.WriteString(" ")
		b.WriteString(truncate(row.description, 60))
		if row.workerID != "" {
			b.WriteString(dimStyle.Render("  [" + row.workerID + "]"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.done && m.failed:
		b.WriteString(failedStyle.Render("✗ " + m.finalMsg))
	case m.done:
		b.WriteString(completedStyle.Render("✓ " + m.finalMsg))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(dimStyle.Render(" working... (q to detach)"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m *FollowModel) statusGlyph(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusRunning:
		return m.spinner.View()
	case models.TaskStatusCompleted:
		return completedStyle.Render("✓")
	case models.TaskStatusFailed:
		return failedStyle.Render("✗")
	case models.TaskStatusSkipped:
		return dimStyle.Render("-")
	default:
		return dimStyle.Render("·")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// Run starts the follow view and blocks until the workflow finishes or the
// user detaches.
func Run(request string, events <-chan orchestrator.Event) error {
	p := tea.NewProgram(NewFollowModel(request, events))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("follow view: %w", err)
	}
	return nil
}
