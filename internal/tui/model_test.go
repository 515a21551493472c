package tui

import (
	"path/filepath"
	"testing"

	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/internal/rating"
	"rawcull/pkg/testutils"
	"rawcull/pkg/types"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, names ...string) (*Model, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		testutils.WriteRAF(t, dir, name, 32, 24)
	}
	m := New(config.NewTestConfig(), rating.NewMemoryStore())
	require.NoError(t, m.Open(dir))
	return m, dir
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and every message its commands produce, except spinner
// ticks which would never stop.
func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	for _, next := range collect(cmd) {
		send(m, next)
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func TestOpen(t *testing.T) {
	m, dir := newModel(t, "b.raf", "a.raf")
	assert.Equal(t, dir, m.Controller().Catalog().Dir())
	assert.Equal(t, "a.raf - Score: 0★", m.status.Text())

	err := m.Open(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsDirectoryNotFound(err))

	require.NoError(t, m.Open(t.TempDir()))
	assert.Equal(t, "No RAW files found in selected folder", m.status.Text())
}

func TestNavigation(t *testing.T) {
	m, _ := newModel(t, "a.raf", "b.raf", "c.raf")

	send(m, runes("j"))
	assert.Equal(t, 1, m.ctrl.Index())
	send(m, tea.KeyMsg{Type: tea.KeyDown})
	send(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.ctrl.Index())
	assert.Equal(t, "c.raf - Score: 0★", m.status.Text())

	send(m, runes("k"))
	send(m, tea.KeyMsg{Type: tea.KeyUp})
	send(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.ctrl.Index())
}

func TestToggle(t *testing.T) {
	m, _ := newModel(t, "a.raf")
	assert.Equal(t, types.ViewGrid, m.ctrl.Mode())

	send(m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, types.ViewSingle, m.ctrl.Mode())
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, types.ViewGrid, m.ctrl.Mode())
}

func TestRateAndFilter(t *testing.T) {
	m, _ := newModel(t, "a.raf", "b.raf", "c.raf")

	send(m, runes("3"))
	assert.Equal(t, "a.raf - Score: 3★", m.status.Text())
	send(m, runes("j"))
	send(m, runes("j"))
	send(m, runes("3"))

	// All -> 0★ -> 1★ -> 2★ -> 3★
	send(m, runes("f"))
	assert.Equal(t, types.FilterRating(0), m.ctrl.Filter())
	require.Len(t, m.ctrl.Visible(), 1)
	assert.Equal(t, "b.raf", m.ctrl.Visible()[0].Name)

	for i := 0; i < 3; i++ {
		send(m, runes("f"))
	}
	assert.Equal(t, types.FilterRating(3), m.ctrl.Filter())
	assert.Len(t, m.ctrl.Visible(), 2)

	send(m, runes("f"))
	send(m, runes("f"))
	send(m, runes("f"))
	assert.Equal(t, types.FilterAll, m.ctrl.Filter())
	assert.Len(t, m.ctrl.Visible(), 3)
}

func TestMetadataLoadedForCurrent(t *testing.T) {
	m, dir := newModel(t, "a.raf")
	tiff := testutils.ExifTIFF(testutils.ExifFields{
		Make: "FUJIFILM", Model: "X-T3", Taken: "2023:05:01 10:20:30",
		ISO: 200, Exposure: [2]uint32{1, 60}, FNumber: [2]uint32{4, 1},
	})
	exifRAF := testutils.RAFBytes(testutils.WithExif(testutils.EncodeJPEG(t, testutils.TestImage(8, 8)), tiff))
	testutils.WriteFile(t, dir, "b.raf", exifRAF)
	send(m, runes("r"))
	require.Len(t, m.ctrl.Visible(), 2)

	for _, msg := range collect(m.Init()) {
		send(m, msg)
	}
	_, failed := m.metaErr[filepath.Join(m.ctrl.Catalog().Dir(), "a.raf")]
	assert.True(t, failed, "a.raf has no EXIF")

	send(m, runes("j"))
	meta, ok := m.metadata[filepath.Join(m.ctrl.Catalog().Dir(), "b.raf")]
	require.True(t, ok)
	assert.Equal(t, "X-T3", meta.Model)
	assert.Equal(t, 200, meta.ISO)
	assert.Equal(t, "1/60", meta.Exposure)
}

func TestExport(t *testing.T) {
	m, _ := newModel(t, "a.raf", "b.raf", "c.raf")

	send(m, runes("e"))
	assert.Equal(t, "No scored images found to export", m.status.Text())

	send(m, runes("2"))
	send(m, runes("j"))
	send(m, runes("j"))
	send(m, runes("5"))

	dest := m.ExportDir()
	assert.Equal(t, filepath.Join(m.ctrl.Catalog().Dir(), "export"), dest)

	send(m, runes("e"))
	assert.False(t, m.exporting)
	assert.False(t, m.status.Loading())
	assert.Equal(t, "Exported 2 images to "+dest, m.status.Text())
	assert.FileExists(t, filepath.Join(dest, "a.jpg"))
	assert.FileExists(t, filepath.Join(dest, "c.jpg"))
	assert.NoFileExists(t, filepath.Join(dest, "b.jpg"))
}

func TestExportToConfiguredDirectory(t *testing.T) {
	m, _ := newModel(t, "a.raf")
	m.cfg.Export.Directory = filepath.Join(t.TempDir(), "picks")
	send(m, runes("1"))
	send(m, runes("e"))
	assert.FileExists(t, filepath.Join(m.cfg.Export.Directory, "a.jpg"))
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, "a.raf")
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
