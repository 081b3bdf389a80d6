package cli

import "github.com/charmbracelet/lipgloss"

// Colors are dropped automatically when output is not a terminal
var (
	colorCritical = lipgloss.Color("#FF6B6B")
	colorHigh     = lipgloss.Color("#FFB347")
	colorMedium   = lipgloss.Color("#FFE66D")
	colorLow      = lipgloss.Color("#4ECDC4")
	colorDone     = lipgloss.Color("#95E1A3")
	colorPrimary  = lipgloss.Color("#4ECDC4")
	colorMuted    = lipgloss.Color("#888888")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	overdueStyle = lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
	checkStyle   = lipgloss.NewStyle().Foreground(colorDone)

	priorityStyles = map[string]lipgloss.Style{
		"critical": lipgloss.NewStyle().Foreground(colorCritical).Bold(true),
		"high":     lipgloss.NewStyle().Foreground(colorHigh).Bold(true),
		"medium":   lipgloss.NewStyle().Foreground(colorMedium),
		"low":      lipgloss.NewStyle().Foreground(colorLow),
	}
)

// projectStyle colors a project name with its own hex color
func projectStyle(hex string) lipgloss.Style {
	if hex == "" {
		return headingStyle
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex))
}
