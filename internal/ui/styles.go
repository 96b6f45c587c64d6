package ui

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF5F5F"
	colorInfo    = "#626262"
	colorMissing = "#D9822B"
	colorExtra   = "#2B7BD9"
	colorBorder  = "#874BFD"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	OnlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	MissingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorMissing))

	ExtraStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorExtra))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)
)
