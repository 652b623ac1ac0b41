package tui

import "github.com/charmbracelet/lipgloss"

// Candidate states shown in the probe display.
const (
	StatusProbing  = "probing"
	StatusFound    = "found"
	StatusRejected = "rejected"
)

var (
	// HeaderStyle styles titles and column headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	statusStyles = map[string]lipgloss.Style{
		StatusFound:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusProbing:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusRejected: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
)

// StatusStyle returns the lipgloss style for a candidate status.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
