package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7B61FF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBCB8B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#959595"))
)

func printHeader(w io.Writer, message string) {
	fmt.Fprintln(w, headerStyle.Render(message))
}

func printSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, successStyle.Render("✓ "+message))
}

func printWarning(w io.Writer, message string) {
	fmt.Fprintln(w, warningStyle.Render("! "+message))
}

func printError(w io.Writer, message string) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+message))
}
