package gui

import (
	"rawcull/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

func (a *App) createToolbar() fyne.CanvasObject {
	a.folderLabel = widget.NewLabel("No folder selected")
	a.folderLabel.Truncation = fyne.TextTruncateEllipsis

	openButton := widget.NewButton("Select Folder", a.chooseFolder)

	a.filterSelect = widget.NewSelect(types.FilterOptions(), func(s string) {
		f, err := types.ParseFilter(s)
		if err != nil {
			a.ShowError("Invalid filter", err)
			return
		}
		if f != a.ctrl.Filter() {
			a.ApplyFilter(f)
		}
	})
	a.filterSelect.SetSelected(a.ctrl.Filter().String())

	a.toggleButton = widget.NewButton("Single View", a.ToggleView)
	a.exportButton = widget.NewButton("Export Scored", a.chooseExportFolder)

	left := container.NewHBox(openButton, widget.NewLabel("Filter:"), a.filterSelect, a.toggleButton, a.exportButton)
	return container.NewBorder(nil, nil, left, nil, a.folderLabel)
}

func (a *App) chooseFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			a.ShowError("Could not open folder", err)
			return
		}
		if uri == nil {
			return
		}
		if err := a.OpenFolder(uri.Path()); err != nil {
			a.ShowError("Could not open folder", err)
		}
	}, a.mainWindow)
}

func (a *App) chooseExportFolder() {
	if len(a.scored()) == 0 {
		a.ShowInfo("No scored images found to export")
		return
	}
	if dir := a.cfg.Export.Directory; dir != "" {
		a.Export(dir)
		return
	}
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			a.ShowError("Could not open folder", err)
			return
		}
		if uri != nil {
			a.Export(uri.Path())
		}
	}, a.mainWindow)
}
