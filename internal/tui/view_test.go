package tui

import (
	"strings"
	"testing"

	"rawcull/internal/config"
	"rawcull/internal/rating"

	alsrt "github.com/alecthomas/assert"
	tea "github.com/charmbracelet/bubbletea"
)

func TestViewBeforeOpen(t *testing.T) {
	m := New(config.NewTestConfig(), rating.NewMemoryStore())
	out := m.View()
	alsrt.Contains(t, out, "rawcull")
	alsrt.Contains(t, out, "(no folder)")
	alsrt.Contains(t, out, "Select a folder to begin")
}

func TestViewList(t *testing.T) {
	m, dir := newModel(t, "DSCF0001.RAF", "DSCF0002.RAF")
	send(m, runes("4"))

	out := m.View()
	alsrt.Contains(t, out, dir)
	alsrt.Contains(t, out, "Filter: All")
	alsrt.Contains(t, out, "View: Grid")
	alsrt.Contains(t, out, "DSCF0001.RAF")
	alsrt.Contains(t, out, "DSCF0002.RAF")
	alsrt.Contains(t, out, "★★★★☆")
	alsrt.Contains(t, out, "> DSCF0001.RAF")
	alsrt.Contains(t, out, "1 of 2")
}

func TestViewListScrollsWithCursor(t *testing.T) {
	names := []string{"a.raf", "b.raf", "c.raf", "d.raf", "e.raf"}
	m, _ := newModel(t, names...)
	send(m, tea.WindowSizeMsg{Width: 80, Height: 9})
	for range names {
		send(m, runes("j"))
	}

	out := m.View()
	alsrt.Contains(t, out, "> e.raf")
	alsrt.False(t, strings.Contains(out, "a.raf"), "first row scrolled out of view")
}

func TestViewDetail(t *testing.T) {
	m, _ := newModel(t, "DSCF0001.RAF")
	send(m, runes("2"))
	send(m, tea.KeyMsg{Type: tea.KeySpace})

	out := m.View()
	alsrt.Contains(t, out, "View: Single")
	alsrt.Contains(t, out, "DSCF0001.RAF")
	alsrt.Contains(t, out, "1 of 1")
	alsrt.Contains(t, out, "★★☆☆☆ 2★")
	alsrt.Contains(t, out, "unavailable")
}

func TestViewEmptyFilter(t *testing.T) {
	m, _ := newModel(t, "a.raf")
	for i := 0; i < 3; i++ {
		send(m, runes("f"))
	}
	alsrt.Contains(t, m.View(), "No images match the selected filter")
}

func TestViewHelp(t *testing.T) {
	m, _ := newModel(t, "a.raf")
	alsrt.Contains(t, m.View(), "toggle view")
	send(m, runes("?"))
	alsrt.Contains(t, m.View(), "rescan")
}
