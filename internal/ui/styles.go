package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary   = lipgloss.Color("75")  // Blue
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	// Headline counter box on the dashboard
	StyleStatBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 2)
)

// StatusStyle returns the style for a display status label, including the
// derived "overdue" state.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return StyleSuccess
	case "in-progress":
		return StylePrimary
	case "overdue":
		return StyleError
	default:
		return StyleSubtle
	}
}

// PriorityStyle returns the style for a priority label.
func PriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return StyleError
	case "medium":
		return StyleWarning
	default:
		return StylePrimary
	}
}
