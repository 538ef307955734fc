package statsui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#5FAFAF")
	muted  = lipgloss.Color("#5C6370")
	bright = lipgloss.Color("#E6E6E6")

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(muted).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(muted)
	activeTabStyle = tabStyle.
			Foreground(bright).
			Bold(true).
			BorderForeground(accent)

	dimStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))

	cardStyle = lipgloss.NewStyle().
			Width(16).
			Padding(0, 1).
			MarginRight(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(accent)
	cardLabelStyle = lipgloss.NewStyle().Foreground(muted)
	cardValueStyle = lipgloss.NewStyle().Foreground(bright).Bold(true)
)
