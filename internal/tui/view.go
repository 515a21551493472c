package tui

import (
	"fmt"
	"strings"

	"rawcull/internal/catalog"
	"rawcull/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const defaultRows = 20

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")

	switch {
	case len(m.ctrl.Visible()) == 0:
		sb.WriteString(InfoStyle.Render(m.ctrl.Status()))
	case m.ctrl.Mode() == types.ViewSingle:
		sb.WriteString(m.renderDetail())
	default:
		sb.WriteString(m.renderList())
	}

	sb.WriteString("\n\n")
	if s := m.status.View(); s != "" {
		sb.WriteString(s + "\n")
	}
	sb.WriteString(m.help.View(m.keys))

	return AppStyle.Render(sb.String())
}

func (m *Model) renderHeader() string {
	dir := "(no folder)"
	if cat := m.ctrl.Catalog(); cat != nil {
		dir = cat.Dir()
	}
	mode := "Grid"
	if m.ctrl.Mode() == types.ViewSingle {
		mode = "Single"
	}
	info := fmt.Sprintf("%s  Filter: %s  View: %s", dir, m.ctrl.Filter(), mode)
	return lipgloss.JoinHorizontal(lipgloss.Top, TitleStyle.Render("rawcull"), " ", InfoStyle.Render(info))
}

// rows is how many list rows fit on screen.
func (m *Model) rows() int {
	if m.height <= 0 {
		return defaultRows
	}
	// header, spacing, status and help take about six lines
	return max(3, m.height-6)
}

func (m *Model) renderList() string {
	visible := m.ctrl.Visible()
	cursor := m.ctrl.Index()

	n := m.rows()
	start := 0
	if cursor >= n {
		start = cursor - n + 1
	}
	end := min(len(visible), start+n)

	nameWidth := 0
	for _, e := range visible[start:end] {
		nameWidth = max(nameWidth, lipgloss.Width(e.Name))
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		e := visible[i]
		line := fmt.Sprintf("%-*s  %s  %8s  %s",
			nameWidth, e.Name,
			StarStyle.Render(m.ctrl.Rating(e.Path).Stars()),
			humanize.Bytes(uint64(e.Size)),
			e.ModTime.Format("2006-01-02 15:04"),
		)
		if i == cursor {
			sb.WriteString(SelectedStyle.Render("> " + line))
		} else {
			sb.WriteString(RowStyle.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(InfoStyle.Render(fmt.Sprintf("%d of %d", cursor+1, len(visible))))
	return sb.String()
}

func (m *Model) renderDetail() string {
	e, ok := m.ctrl.Current()
	if !ok {
		return ""
	}
	r := m.ctrl.Rating(e.Path)

	lines := []string{
		TitleStyle.Render(e.Name),
		"",
		field("Position", fmt.Sprintf("%d of %d", m.ctrl.Index()+1, len(m.ctrl.Visible()))),
		field("Size", humanize.Bytes(uint64(e.Size))),
		field("Modified", e.ModTime.Format("2006-01-02 15:04:05")),
		field("Rating", StarStyle.Render(r.Stars())+" "+r.String()),
	}
	lines = append(lines, m.renderMetadata(e)...)
	return DetailStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderMetadata(e catalog.Entry) []string {
	if err, ok := m.metaErr[e.Path]; ok {
		return []string{field("EXIF", InfoStyle.Render("unavailable: "+err.Error()))}
	}
	meta, ok := m.metadata[e.Path]
	if !ok {
		return []string{field("EXIF", InfoStyle.Render("reading..."))}
	}

	var lines []string
	if c := meta.Camera(); c != "" {
		lines = append(lines, field("Camera", c))
	}
	if meta.Lens != "" {
		lines = append(lines, field("Lens", meta.Lens))
	}
	if !meta.Taken.IsZero() {
		lines = append(lines, field("Taken", meta.Taken.Format("2006-01-02 15:04:05")))
	}
	if s := meta.Settings(); s != "" {
		lines = append(lines, field("Exposure", s))
	}
	return lines
}

func field(label, value string) string {
	return LabelStyle.Render(label) + value
}
