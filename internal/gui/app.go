package gui

import (
	"context"
	"fmt"
	"image"
	"sync"

	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/internal/export"
	"rawcull/internal/log"
	"rawcull/internal/preview"
	"rawcull/internal/rating"
	"rawcull/internal/raw"
	"rawcull/internal/session"
	"rawcull/internal/watch"
	"rawcull/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// App is the GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        *config.Config

	ctrl      *session.Controller
	loader    *preview.Loader
	exporter  *export.Exporter
	rescanner *watch.Rescanner

	// visible mirrors ctrl.Visible() for the grid callbacks, which run
	// outside the controller's lock.
	mu      sync.RWMutex
	visible []catalog.Entry
	slot    map[string]int
	// delivered holds requested thumbnails until their cell is drawn, so a
	// cell still shows its image if the cache evicted it in the meantime.
	delivered map[string]image.Image

	folderLabel  *widget.Label
	filterSelect *widget.Select
	toggleButton *widget.Button
	exportButton *widget.Button
	progress     *widget.ProgressBar
	status       *widget.Label

	grid        *widget.GridWrap
	singleImage *canvas.Image
	singleView  fyne.CanvasObject
	views       *fyne.Container

	exportCancel context.CancelFunc
	// closed when the latest focus decode or thumbnail batch ends
	focusDone <-chan struct{}
	batchDone <-chan struct{}
}

// NewApp creates the desktop application.
func NewApp(cfg *config.Config, ratings rating.Store) (*App, error) {
	return New(app.NewWithID("io.github.rawcull"), cfg, ratings)
}

// New builds the application on an existing fyne.App; tests pass the
// fyne test app.
func New(fyneApp fyne.App, cfg *config.Config, ratings rating.Store) (*App, error) {
	decoder := raw.NewDecoder()
	thumbs, display, err := preview.NewCaches(decoder, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		fyneApp:   fyneApp,
		cfg:       cfg,
		ctrl:      session.New(nil, ratings, cfg.StartMode()),
		loader:    preview.NewLoader(thumbs, display, cfg.Preview.Workers),
		exporter:  export.New(decoder, ratings, export.OptionsFromConfig(cfg)),
		slot:      make(map[string]int),
		delivered: make(map[string]image.Image),
	}
	a.mainWindow = fyneApp.NewWindow("RAW Image Browser")
	a.setupMainWindow()
	a.mainWindow.SetOnClosed(a.shutdown)
	return a, nil
}

// GetMainWindow returns the main window instance
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// Controller returns the browsing state.
func (a *App) Controller() *session.Controller {
	return a.ctrl
}

// Run shows the window, opens the configured default folder and starts the
// event loop.
func (a *App) Run() {
	if a.cfg.Library.Default != "" {
		if err := a.OpenFolder(a.cfg.Library.Default); err != nil {
			log.LogWithError(err).Warn("Could not open default folder")
		}
	}
	a.mainWindow.Show()
	a.fyneApp.Run()
}

func (a *App) setupMainWindow() {
	a.mainWindow.Resize(fyne.NewSize(1200, 800))

	a.grid = a.createGridView()
	a.singleView = a.createSingleView()
	a.views = container.NewStack(a.grid, a.singleView)

	a.status = widget.NewLabel(a.ctrl.Status())
	a.progress = widget.NewProgressBar()
	a.progress.Hide()

	content := container.NewBorder(
		a.createToolbar(),
		container.NewVBox(a.progress, a.status),
		nil,
		nil,
		a.views,
	)
	a.mainWindow.SetContent(content)
	a.mainWindow.Canvas().SetOnTypedKey(a.handleKey)
	a.showMode()
}

// OpenFolder scans dir and shows its RAW files.
func (a *App) OpenFolder(dir string) error {
	cat, err := catalog.Scan(dir, catalog.Options{
		Extensions:  a.cfg.Library.Extensions,
		NaturalSort: a.cfg.Library.NaturalSort,
	})
	if err != nil {
		return err
	}

	a.stopWatching()
	a.loader.Thumbs().Purge()
	a.loader.Display().Purge()
	a.ctrl.SetCatalog(cat)
	a.folderLabel.SetText(cat.Dir())

	if a.cfg.Library.Watch {
		a.startWatching(cat)
	}
	a.refreshView()
	if cat.Len() == 0 {
		a.setStatus("No RAW files found in selected folder")
	}
	return nil
}

func (a *App) startWatching(cat *catalog.Catalog) {
	r, err := watch.NewRescanner(cat, watch.DefaultDebounce)
	if err != nil {
		log.LogWithError(err).Warn("Folder watch unavailable")
		return
	}
	r.SetCallback(func(changes []watch.Change, err error) {
		if err != nil {
			a.ShowError("Folder rescan failed", err)
			return
		}
		for _, c := range changes {
			a.loader.Thumbs().Forget(c.Path)
			a.loader.Display().Forget(c.Path)
		}
		a.ctrl.Refresh()
		a.refreshView()
	})
	if err := r.Start(); err != nil {
		log.LogWithError(err).Warn("Folder watch unavailable")
		return
	}
	a.rescanner = r
}

func (a *App) stopWatching() {
	if a.rescanner != nil {
		st := a.rescanner.Status()
		log.LogWithFields(
			log.F("directory", st.Directory),
			log.F("rescans", st.Rescans),
			log.F("changes", st.Changes),
		).Debug("Stopped watching folder")
		a.rescanner.Stop()
		a.rescanner = nil
	}
}

func (a *App) shutdown() {
	a.stopWatching()
	if a.exportCancel != nil {
		a.exportCancel()
	}
	a.loader.Stop()
}

// refreshView re-reads the visible entries and redraws the active view.
func (a *App) refreshView() {
	visible := a.ctrl.Visible()
	slot := make(map[string]int, len(visible))
	for i, e := range visible {
		slot[e.Path] = i
	}
	a.mu.Lock()
	a.visible = visible
	a.slot = slot
	a.delivered = make(map[string]image.Image)
	a.mu.Unlock()

	a.showMode()
	a.grid.Refresh()
	a.updateStatus()
	if a.ctrl.Mode() == types.ViewGrid {
		a.loader.CancelFocus()
		a.batchDone = a.loader.LoadAround(visible, a.ctrl.Index(), a.onThumbnail)
	} else {
		a.showCurrent()
	}
}

// showMode makes the view matching the controller's mode visible.
func (a *App) showMode() {
	if a.ctrl.Mode() == types.ViewGrid {
		a.singleView.Hide()
		a.grid.Show()
		a.toggleButton.SetText("Single View")
	} else {
		a.grid.Hide()
		a.singleView.Show()
		a.toggleButton.SetText("Grid View")
	}
}

func (a *App) visibleEntry(i int) (catalog.Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.visible) {
		return catalog.Entry{}, false
	}
	return a.visible[i], true
}

func (a *App) slotOf(path string) (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.slot[path]
	return i, ok
}

// ToggleView switches between grid and single view.
func (a *App) ToggleView() {
	a.ctrl.ToggleMode()
	a.refreshView()
}

// Next moves to the next visible image.
func (a *App) Next() {
	if a.ctrl.Next() {
		a.cursorMoved()
	}
}

// Previous moves to the previous visible image.
func (a *App) Previous() {
	if a.ctrl.Previous() {
		a.cursorMoved()
	}
}

func (a *App) cursorMoved() {
	a.updateStatus()
	if a.ctrl.Mode() == types.ViewSingle {
		a.showCurrent()
	} else if i := a.ctrl.Index(); i >= 0 {
		a.grid.Refresh()
		a.grid.ScrollTo(i)
	}
}

// Rate rates the current image.
func (a *App) Rate(r types.Rating) {
	e, ok := a.ctrl.Current()
	if !ok {
		return
	}
	if err := a.ctrl.RateCurrent(r); err != nil {
		a.ShowError("Rating failed", err)
		return
	}
	if a.ctrl.Filter().All() {
		if i, ok := a.slotOf(e.Path); ok {
			a.grid.RefreshItem(i)
		}
		a.setStatus(fmt.Sprintf("%s - Score: %s", e.Name, r))
		return
	}
	// The rated image may have left the filtered list.
	a.refreshView()
}

// ApplyFilter shows only images matching f.
func (a *App) ApplyFilter(f types.Filter) {
	a.ctrl.ApplyFilter(f)
	if a.filterSelect.Selected != f.String() {
		a.filterSelect.SetSelected(f.String())
	}
	a.refreshView()
	if a.ctrl.Catalog() != nil && len(a.ctrl.Visible()) == 0 {
		a.setStatus("No images match the selected filter")
	}
}

func (a *App) handleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeySpace:
		a.ToggleView()
	case fyne.KeyLeft:
		a.Previous()
	case fyne.KeyRight:
		a.Next()
	case fyne.Key0, fyne.Key1, fyne.Key2, fyne.Key3, fyne.Key4, fyne.Key5:
		a.Rate(types.Rating(ev.Name[0] - '0'))
	}
}

func (a *App) updateStatus() {
	a.setStatus(a.ctrl.Status())
}

func (a *App) setStatus(text string) {
	a.status.SetText(text)
}

// ShowError displays an error dialog
func (a *App) ShowError(title string, err error) {
	if err == nil {
		return
	}
	log.LogWithError(err).Error(title)
	dialog.ShowError(errors.Wrap(err, title), a.mainWindow)
}

// ShowInfo displays an information dialog
func (a *App) ShowInfo(message string) {
	dialog.ShowInformation("Information", message, a.mainWindow)
}
