package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"minarai/internal/agent"
)

// Internal messages
type turnEventMsg struct{ event agent.Event }
type turnDoneMsg struct{}
type modelListMsg struct {
	names []string
	err   error
}

const helpText = "Available commands:\n" +
	"- /models - list and switch models\n" +
	"- /metrics - show session counters\n" +
	"- /help - show this help\n" +
	"- esc - cancel the current turn, ctrl+c - quit"

// waitForEvent relays the next turn event into the update loop. A closed
// channel means the turn finished.
func waitForEvent(ch <-chan agent.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return turnDoneMsg{}
		}
		return turnEventMsg{event: ev}
	}
}

func fetchModels(list ModelLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		names, err := list(ctx)
		return modelListMsg{names: names, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6 // Reserve space for input and status
		m.ready = true
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnEventMsg:
		m.applyEvent(msg.event)
		return m, waitForEvent(m.events)

	case turnDoneMsg:
		m.busy = false
		m.events = nil
		m.cancelTurn = nil
		m.statusPhase = "ready"
		m.statusDetail = ""
		return m, nil

	case modelListMsg:
		if msg.err != nil {
			m.appendTutor(fmt.Sprintf("Could not list models: %v", msg.err))
			return m, nil
		}
		if len(msg.names) == 0 {
			m.appendTutor("No models installed on the endpoint.")
			return m, nil
		}
		m.modelList = msg.names
		m.modelListIndex = 0
		m.showModelList = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showModelList {
		return m.handlePopupKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.cancelTurn != nil {
			m.cancelTurn()
		}
		return m, tea.Quit

	case "esc":
		if m.busy && m.cancelTurn != nil {
			m.cancelTurn()
			m.statusDetail = "cancelling"
		}
		return m, nil

	case "enter":
		if m.busy {
			return m, nil
		}
		input := strings.TrimSpace(m.input.Value())
		if input == "" {
			return m, nil
		}
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}
		return m.startTurn(input)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.modelListIndex > 0 {
			m.modelListIndex--
		}
	case "down", "j":
		if m.modelListIndex < len(m.modelList)-1 {
			m.modelListIndex++
		}
	case "enter":
		if m.modelListIndex < len(m.modelList) {
			name := m.modelList[m.modelListIndex]
			if m.switchModel != nil {
				m.switchModel(name)
			}
			m.modelName = name
			m.appendTutor(fmt.Sprintf("Switched to model `%s`.", name))
		}
		m.showModelList = false
	case "esc", "ctrl+c":
		m.showModelList = false
	}
	return m, nil
}

func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.input.SetValue("")
	switch strings.Fields(input)[0] {
	case "/models":
		if m.listModels == nil {
			m.appendTutor("Model switching is not available for this provider.")
			return m, nil
		}
		return m, fetchModels(m.listModels)
	case "/metrics":
		if m.metrics != nil {
			m.appendTutor(m.metrics())
		}
	case "/help":
		m.appendTutor(helpText)
	case "/quit", "/exit":
		return m, tea.Quit
	default:
		m.appendTutor(fmt.Sprintf("Unknown command %q. Try /help.", input))
	}
	return m, nil
}

func (m Model) startTurn(input string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, chatMessage{role: roleUser, content: input})
	m.refreshViewport()
	m.input.SetValue("")

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTurn = cancel
	m.events = m.runner.RunTurnStream(ctx, input)
	m.busy = true
	m.statusPhase = "thinking"
	m.statusDetail = ""
	return m, tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m *Model) applyEvent(ev agent.Event) {
	switch ev := ev.(type) {
	case agent.TextEvent:
		m.appendTutor(string(ev))
	case agent.StatusEvent:
		m.statusPhase = ev.Kind
		m.statusDetail = ev.Detail
	case agent.CodeWriteEvent:
		m.appendTutor(fmt.Sprintf("Saved `%s`:\n\n```%s\n%s\n```", ev.Path, ev.Lang, ev.Content))
	}
}

func (m *Model) appendTutor(content string) {
	m.messages = append(m.messages, chatMessage{role: roleTutor, content: content})
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(formatChatContent(m.messages, m.renderer))
	m.viewport.GotoBottom()
}
