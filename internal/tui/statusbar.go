package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusBar shows one line of status text, with a spinner while busy.
type StatusBar struct {
	text    string
	failed  bool
	spinner spinner.Model
	loading bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	return &StatusBar{spinner: s}
}

func (s *StatusBar) SetLoading(loading bool) { s.loading = loading }
func (s *StatusBar) Loading() bool           { return s.loading }
func (s *StatusBar) Text() string            { return s.text }

// SetText shows an informational message.
func (s *StatusBar) SetText(text string) { s.text, s.failed = text, false }

// SetError shows text in the error style until the next SetText.
func (s *StatusBar) SetError(text string) { s.text, s.failed = text, true }

// Tick starts the spinner.
func (s *StatusBar) Tick() tea.Msg {
	return s.spinner.Tick()
}

// Update advances the spinner; ticks are dropped once loading stops.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.loading {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

func (s *StatusBar) View() string {
	switch {
	case s.loading:
		return StatusStyle.Render(s.spinner.View() + " " + s.text)
	case s.text == "":
		return ""
	case s.failed:
		return ErrorStyle.Render(s.text)
	default:
		return StatusStyle.Render(s.text)
	}
}
