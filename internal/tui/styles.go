package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Main application style
	AppStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// Title bar
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Folder, filter and mode next to the title
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	// Status line
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A9"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	// Row under the cursor
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7"))

	RowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	StarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EBCB8B"))

	// Detail view frame
	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7B61FF")).
			Padding(1, 2)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#81A1C1")).
			Width(10)
)
