package gui

import (
	"fmt"
	"image"

	"rawcull/internal/preview"
	"rawcull/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

func (a *App) createSingleView() fyne.CanvasObject {
	a.singleImage = canvas.NewImageFromImage(nil)
	a.singleImage.FillMode = canvas.ImageFillContain
	a.singleImage.ScaleMode = canvas.ImageScaleSmooth

	controls := []fyne.CanvasObject{
		layout.NewSpacer(),
		widget.NewButton("Previous", a.Previous),
	}
	for r := types.MinRating; r <= types.MaxRating; r++ {
		r := r
		controls = append(controls, widget.NewButton(r.String(), func() { a.Rate(r) }))
	}
	controls = append(controls, widget.NewButton("Next", a.Next), layout.NewSpacer())

	return container.NewBorder(nil, container.NewHBox(controls...), nil, nil, a.singleImage)
}

// showCurrent displays the current image. A cached display image is shown
// at once; otherwise the thumbnail stands in while the full preview decodes.
func (a *App) showCurrent() {
	e, ok := a.ctrl.Current()
	if !ok {
		a.loader.CancelFocus()
		a.setSingleImage(nil)
		return
	}
	if img, ok := a.loader.Display().Peek(e.Path); ok {
		a.loader.CancelFocus()
		a.setSingleImage(img)
		return
	}

	thumb, _ := a.loader.Thumbs().Peek(e.Path)
	a.setSingleImage(thumb)
	a.focusDone = a.loader.Focus(e, a.onFocus)
}

// onFocus shows a decoded display image if the user has not moved on.
func (a *App) onFocus(res preview.Result) {
	cur, ok := a.ctrl.Current()
	if !ok || cur.Path != res.Entry.Path || a.ctrl.Mode() != types.ViewSingle {
		return
	}
	if res.Err != nil {
		a.setSingleImage(nil)
		a.setStatus(fmt.Sprintf("Error loading image: %v", res.Err))
		return
	}
	a.setSingleImage(res.Image)
}

func (a *App) setSingleImage(img image.Image) {
	a.singleImage.Image = img
	a.singleImage.Refresh()
}
