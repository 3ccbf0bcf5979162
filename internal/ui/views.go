package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.showModelList {
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			renderModelPopup(m.modelList, m.modelListIndex),
		)
	}

	sections := []string{
		m.renderChat(),
		InputStyle.Render(m.input.View()),
		m.renderStatus(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderChat() string {
	if len(m.messages) == 0 {
		return MutedStyle.Render(fmt.Sprintf(
			"minarai - %s mode. Type a question to start, /help for commands.", m.modeName))
	}
	return m.viewport.View()
}

func (m Model) renderStatus() string {
	var left string
	switch m.statusPhase {
	case "thinking":
		left = StatusThinkingStyle.Render(m.spinner.View() + " Thinking...")
	case "tool_start":
		left = StatusToolStyle.Render(m.spinner.View() + " Running " + m.statusDetail)
	case "tool_done":
		left = StatusToolStyle.Render("✔ " + m.statusDetail)
	default:
		left = StatusReadyStyle.Render("Ready")
		if m.statusDetail != "" {
			left = StatusReadyStyle.Render(m.statusDetail)
		}
	}

	right := ""
	if m.modelName != "" {
		right = MutedStyle.Render(m.modelName)
	}
	if right != "" {
		return fmt.Sprintf("%s  %s", left, right)
	}
	return left
}

// formatChatContent formats the message history for the viewport.
func formatChatContent(messages []chatMessage, renderer MarkdownRenderer) string {
	var lines []string
	for _, msg := range messages {
		if msg.role == roleUser {
			lines = append(lines, UserLabelStyle.Render("You: ")+msg.content)
		} else {
			rendered, err := renderMarkdown(msg.content, renderer)
			if err != nil {
				rendered = msg.content
			}
			lines = append(lines, TutorLabelStyle.Render("Tutor:")+"\n"+rendered)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderMarkdown(content string, renderer MarkdownRenderer) (out string, err error) {
	// Glamour can panic on some malformed input, keep the chat alive.
	defer func() {
		if r := recover(); r != nil {
			out = content
			err = nil
		}
	}()
	out, err = renderer.Render(content)
	return strings.TrimRight(out, "\n"), err
}

func renderModelPopup(models []string, selected int) string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Select Model:"))
	lines = append(lines, "")

	for i, model := range models {
		if i == selected {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Render(fmt.Sprintf("▸ %s", model)))
		} else {
			lines = append(lines, fmt.Sprintf("  %s", model))
		}
	}

	lines = append(lines, "")
	lines = append(lines, MutedStyle.Render("↑/↓: Navigate  Enter: Select  Esc: Cancel"))

	return PopupStyle.Render(strings.Join(lines, "\n"))
}
