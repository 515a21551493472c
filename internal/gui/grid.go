package gui

import (
	"image"

	"rawcull/internal/catalog"
	"rawcull/internal/log"
	"rawcull/internal/preview"
	"rawcull/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// thumbnail is one grid cell: the preview, file name, modification time and
// rating.
type thumbnail struct {
	widget.BaseWidget

	image  *canvas.Image
	name   *widget.Label
	time   *widget.Label
	rating *widget.Label
	failed *widget.Label
}

func newThumbnail(size float32) *thumbnail {
	t := &thumbnail{
		image:  canvas.NewImageFromImage(nil),
		name:   widget.NewLabel(""),
		time:   widget.NewLabel(""),
		rating: widget.NewLabel(""),
		failed: widget.NewLabel("Preview unavailable"),
	}
	t.image.FillMode = canvas.ImageFillContain
	t.image.ScaleMode = canvas.ImageScaleFastest
	t.image.SetMinSize(fyne.NewSize(size, size))
	t.name.Truncation = fyne.TextTruncateEllipsis
	t.name.Alignment = fyne.TextAlignCenter
	t.time.Alignment = fyne.TextAlignCenter
	t.rating.Alignment = fyne.TextAlignCenter
	t.failed.Alignment = fyne.TextAlignCenter
	t.failed.Hide()
	t.ExtendBaseWidget(t)
	return t
}

func (t *thumbnail) CreateRenderer() fyne.WidgetRenderer {
	info := container.NewVBox(t.name, t.time, t.rating)
	return widget.NewSimpleRenderer(container.NewBorder(nil, info, nil, nil, container.NewStack(t.image, t.failed)))
}

// set shows e. img is nil while the preview is still loading.
func (t *thumbnail) set(e catalog.Entry, img image.Image, r types.Rating, current, unviewable bool) {
	t.name.SetText(e.Name)
	t.name.TextStyle = fyne.TextStyle{Bold: current}
	t.time.SetText(e.ModTime.Format("2006-01-02 15:04:05"))
	t.rating.SetText(r.Stars())

	if unviewable {
		t.failed.Show()
	} else {
		t.failed.Hide()
	}
	t.image.Image = img
	t.image.Refresh()
	t.name.Refresh()
}

func (a *App) createGridView() *widget.GridWrap {
	size := float32(a.cfg.Preview.ThumbSize)
	grid := widget.NewGridWrap(
		func() int {
			a.mu.RLock()
			defer a.mu.RUnlock()
			return len(a.visible)
		},
		func() fyne.CanvasObject {
			return newThumbnail(size)
		},
		a.updateCell,
	)
	grid.OnSelected = func(id widget.GridWrapItemID) {
		grid.UnselectAll()
		a.SelectImage(id)
	}
	return grid
}

func (a *App) updateCell(id widget.GridWrapItemID, obj fyne.CanvasObject) {
	cell := obj.(*thumbnail)
	e, ok := a.visibleEntry(id)
	if !ok {
		return
	}
	thumbs := a.loader.Thumbs()
	unviewable := thumbs.Unviewable(e.Path) != nil
	img, ok := thumbs.Peek(e.Path)
	if !ok {
		img, ok = a.takeDelivered(e.Path)
	}
	if !ok && !unviewable {
		// never decoded, or evicted since
		a.loader.Request(e, a.onRequested)
	}
	cell.set(e, img, a.ctrl.Rating(e.Path), id == a.ctrl.Index(), unviewable)
}

func (a *App) takeDelivered(path string) (image.Image, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	img, ok := a.delivered[path]
	delete(a.delivered, path)
	return img, ok
}

// onRequested keeps a requested thumbnail for its cell, then redraws it.
func (a *App) onRequested(res preview.Result) {
	if res.Err == nil && res.Image != nil {
		a.mu.Lock()
		if _, ok := a.slot[res.Entry.Path]; ok {
			a.delivered[res.Entry.Path] = res.Image
		}
		a.mu.Unlock()
	}
	a.onThumbnail(res)
}

// SelectImage opens the i-th visible image in single view.
func (a *App) SelectImage(i int) {
	if err := a.ctrl.Select(i); err != nil {
		log.LogWithError(err).Debug("Ignoring selection")
		return
	}
	a.refreshView()
}

// onThumbnail redraws the cell of a finished thumbnail. It runs on a loader
// worker.
func (a *App) onThumbnail(res preview.Result) {
	if res.Err != nil {
		log.LogWithError(res.Err, log.F("file", res.Entry.Path)).Debug("Thumbnail failed")
	}
	if i, ok := a.slotOf(res.Entry.Path); ok {
		a.grid.RefreshItem(i)
	}
}
