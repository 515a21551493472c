package gui

import (
	"context"
	"fmt"

	"rawcull/internal/catalog"
	"rawcull/internal/log"
	"rawcull/pkg/types"

	"github.com/samber/lo"
)

// scored returns the entries of the open folder the exporter would write.
func (a *App) scored() []catalog.Entry {
	cat := a.ctrl.Catalog()
	if cat == nil {
		return nil
	}
	return a.exporter.Select(cat.Entries())
}

// Export writes every scored image of the open folder to dir as JPEG. The
// returned channel closes when the export has finished.
func (a *App) Export(dir string) <-chan struct{} {
	done := make(chan struct{})
	entries := a.scored()
	if len(entries) == 0 {
		a.ShowInfo("No scored images found to export")
		close(done)
		return done
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.exportCancel = cancel
	a.exportButton.Disable()
	a.progress.SetValue(0)
	a.progress.Show()
	a.setStatus(fmt.Sprintf("Exporting %d images...", len(entries)))

	go func() {
		defer close(done)
		defer cancel()

		results, err := a.exporter.Export(ctx, entries, dir, func(n, total int) {
			a.progress.SetValue(float64(n) / float64(total))
		})

		a.progress.Hide()
		a.exportButton.Enable()
		if err != nil {
			a.ShowError("Export failed", err)
			return
		}

		exported := lo.CountBy(results, func(r types.ExportResult) bool { return r.Exported })
		failed := lo.Filter(results, func(r types.ExportResult, _ int) bool { return r.Error != nil })
		for _, r := range failed {
			log.LogWithError(r.Error, log.F("file", r.SourcePath)).Warn("Image not exported")
		}

		summary := fmt.Sprintf("Exported %d images to %s", exported, dir)
		if skipped := lo.CountBy(results, func(r types.ExportResult) bool { return r.Skipped }); skipped > 0 {
			summary += fmt.Sprintf(", %d skipped", skipped)
		}
		if len(failed) > 0 {
			summary += fmt.Sprintf(", %d failed", len(failed))
		}
		a.setStatus(summary)
		a.ShowInfo(summary)
	}()
	return done
}
