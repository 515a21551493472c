// Package tui is a terminal front end for browsing, rating and exporting a
// folder of RAW files.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"rawcull/internal/analysis"
	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/export"
	"rawcull/internal/log"
	"rawcull/internal/rating"
	"rawcull/internal/raw"
	"rawcull/internal/session"
	"rawcull/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

// metadataMsg carries the EXIF of one file.
type metadataMsg struct {
	path string
	meta analysis.Metadata
	err  error
}

// exportDoneMsg reports a finished export.
type exportDoneMsg struct {
	dest    string
	results []types.ExportResult
	err     error
}

type Model struct {
	cfg      *config.Config
	ctrl     *session.Controller
	exporter *export.Exporter
	analyzer *analysis.Engine

	keys   KeyMap
	help   help.Model
	status *StatusBar

	width  int
	height int

	metadata  map[string]analysis.Metadata
	metaErr   map[string]error
	exporting bool
}

// New creates a model with no folder open.
func New(cfg *config.Config, ratings rating.Store) *Model {
	decoder := raw.NewDecoder()
	return &Model{
		cfg:      cfg,
		ctrl:     session.New(nil, ratings, cfg.StartMode()),
		exporter: export.New(decoder, ratings, export.OptionsFromConfig(cfg)),
		analyzer: analysis.New(decoder),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		status:   NewStatusBar(),
		metadata: make(map[string]analysis.Metadata),
		metaErr:  make(map[string]error),
	}
}

// Open scans dir and shows its RAW files.
func (m *Model) Open(dir string) error {
	cat, err := catalog.Scan(dir, catalog.Options{
		Extensions:  m.cfg.Library.Extensions,
		NaturalSort: m.cfg.Library.NaturalSort,
	})
	if err != nil {
		return err
	}
	m.ctrl.SetCatalog(cat)
	m.metadata = make(map[string]analysis.Metadata)
	m.metaErr = make(map[string]error)
	if cat.Len() == 0 {
		m.status.SetText("No RAW files found in selected folder")
	} else {
		m.status.SetText(m.ctrl.Status())
	}
	return nil
}

// Controller returns the browsing state.
func (m *Model) Controller() *session.Controller {
	return m.ctrl
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.loadMetadata()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case metadataMsg:
		if msg.err != nil {
			m.metaErr[msg.path] = msg.err
		} else {
			m.metadata[msg.path] = msg.meta
		}
		return m, nil

	case exportDoneMsg:
		m.finishExport(msg)
		return m, nil
	}

	return m, m.status.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Previous):
		if m.ctrl.Previous() {
			m.updateStatus()
			return m, m.loadMetadata()
		}

	case key.Matches(msg, m.keys.Next):
		if m.ctrl.Next() {
			m.updateStatus()
			return m, m.loadMetadata()
		}

	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.ToggleMode()
		return m, m.loadMetadata()

	case key.Matches(msg, m.keys.Filter):
		m.ctrl.ApplyFilter(types.NextFilter(m.ctrl.Filter()))
		m.updateStatus()
		return m, m.loadMetadata()

	case key.Matches(msg, m.keys.Rate):
		n, _ := strconv.Atoi(msg.String())
		m.rate(types.Rating(n))
		return m, m.loadMetadata()

	case key.Matches(msg, m.keys.Refresh):
		m.rescan()
		return m, m.loadMetadata()

	case key.Matches(msg, m.keys.Export):
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) updateStatus() {
	if !m.exporting {
		m.status.SetText(m.ctrl.Status())
	}
}

func (m *Model) rate(r types.Rating) {
	e, ok := m.ctrl.Current()
	if !ok {
		return
	}
	if err := m.ctrl.RateCurrent(r); err != nil {
		log.LogWithError(err).Error("Rating failed")
		m.status.SetError(fmt.Sprintf("Rating failed: %v", err))
		return
	}
	if !m.exporting {
		m.status.SetText(fmt.Sprintf("%s - Score: %s", e.Name, r))
	}
}

func (m *Model) rescan() {
	cat := m.ctrl.Catalog()
	if cat == nil {
		return
	}
	if err := cat.Rescan(); err != nil {
		m.status.SetError(fmt.Sprintf("Rescan failed: %v", err))
		return
	}
	m.ctrl.Refresh()
	m.updateStatus()
}

// loadMetadata reads the EXIF of the current entry unless it is known.
func (m *Model) loadMetadata() tea.Cmd {
	e, ok := m.ctrl.Current()
	if !ok {
		return nil
	}
	if _, ok := m.metadata[e.Path]; ok {
		return nil
	}
	if _, ok := m.metaErr[e.Path]; ok {
		return nil
	}
	analyzer := m.analyzer
	return func() tea.Msg {
		meta, err := analyzer.Analyze(context.Background(), e.Path)
		return metadataMsg{path: e.Path, meta: meta, err: err}
	}
}

// ExportDir is where scored images are written: the configured directory,
// or an export folder inside the open one.
func (m *Model) ExportDir() string {
	if m.cfg.Export.Directory != "" {
		return m.cfg.Export.Directory
	}
	if cat := m.ctrl.Catalog(); cat != nil {
		return filepath.Join(cat.Dir(), "export")
	}
	return ""
}

func (m *Model) startExport() tea.Cmd {
	if m.exporting {
		return nil
	}
	cat := m.ctrl.Catalog()
	if cat == nil {
		m.status.SetText(m.ctrl.Status())
		return nil
	}
	entries := m.exporter.Select(cat.Entries())
	if len(entries) == 0 {
		m.status.SetText("No scored images found to export")
		return nil
	}

	dest := m.ExportDir()
	exporter := m.exporter
	m.exporting = true
	m.status.SetLoading(true)
	m.status.SetText(fmt.Sprintf("Exporting %d images to %s", len(entries), dest))

	return tea.Batch(m.status.Tick, func() tea.Msg {
		results, err := exporter.Export(context.Background(), entries, dest, nil)
		return exportDoneMsg{dest: dest, results: results, err: err}
	})
}

func (m *Model) finishExport(msg exportDoneMsg) {
	m.exporting = false
	m.status.SetLoading(false)
	if msg.err != nil {
		log.LogWithError(msg.err).Error("Export failed")
		m.status.SetError(fmt.Sprintf("Export failed: %v", msg.err))
		return
	}

	exported := lo.CountBy(msg.results, func(r types.ExportResult) bool { return r.Exported })
	failed := lo.CountBy(msg.results, func(r types.ExportResult) bool { return r.Error != nil })
	text := fmt.Sprintf("Exported %d images to %s", exported, msg.dest)
	if failed > 0 {
		m.status.SetError(fmt.Sprintf("%s, %d failed", text, failed))
		return
	}
	m.status.SetText(text)
}
