package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("62")
	ColorAccent  = lipgloss.Color("205")
	ColorWarn    = lipgloss.Color("214")
	ColorOK      = lipgloss.Color("42")
	ColorMuted   = lipgloss.Color("241")

	UserLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	TutorLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	MutedStyle      = lipgloss.NewStyle().Foreground(ColorMuted)

	StatusThinkingStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	StatusToolStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	StatusReadyStyle    = lipgloss.NewStyle().Foreground(ColorOK)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	PopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)
)
