// Package export writes rated RAW files out as JPEG.
package export

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"rawcull/internal/catalog"
	"rawcull/internal/config"
	"rawcull/internal/errors"
	"rawcull/internal/log"
	"rawcull/internal/rating"
	"rawcull/pkg/types"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Collision strategies for an export destination that already exists.
const (
	CollisionRename    = "rename"
	CollisionSkip      = "skip"
	CollisionOverwrite = "overwrite"
)

// Decoder returns the full-size, upright image of a RAW file.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}

// Options controls what is exported and how.
type Options struct {
	MinRating types.Rating
	Quality   int
	Collision string
	Workers   int
}

// OptionsFromConfig reads the export section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinRating: types.Rating(cfg.Export.MinRating),
		Quality:   cfg.Export.Quality,
		Collision: cfg.Export.Collision,
		Workers:   cfg.Export.Workers,
	}
}

// Progress is called after each selected file is handled.
type Progress func(done, total int)

// Exporter encodes rated entries to JPEG files.
type Exporter struct {
	decoder Decoder
	ratings rating.Store
	opts    Options

	mu       sync.Mutex // guards reserved
	reserved map[string]bool
}

// New returns an Exporter. Zero option values fall back to rating 1,
// quality 95, the rename strategy and one worker.
func New(decoder Decoder, ratings rating.Store, opts Options) *Exporter {
	if opts.MinRating <= 0 {
		opts.MinRating = 1
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 95
	}
	if opts.Collision == "" {
		opts.Collision = CollisionRename
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Exporter{decoder: decoder, ratings: ratings, opts: opts}
}

// Select returns the entries rated at least MinRating, keeping their order.
func (x *Exporter) Select(entries []catalog.Entry) []catalog.Entry {
	return lo.Filter(entries, func(e catalog.Entry, _ int) bool {
		return x.ratings.Get(e.Path) >= x.opts.MinRating
	})
}

// Export writes every selected entry to destDir as <name>.jpg. A file that
// fails is recorded in its result with an ExportError and the export moves
// on. The returned error is set only when destDir cannot be created or ctx
// ends; results then cover the files handled so far. One Export runs at a
// time per Exporter.
func (x *Exporter) Export(ctx context.Context, entries []catalog.Entry, destDir string, progress Progress) ([]types.ExportResult, error) {
	selected := x.Select(entries)
	logger := log.LogWithFields(log.F("destination", destDir), log.F("count", len(selected)))
	if len(selected) == 0 {
		logger.Info("Nothing to export")
		return nil, nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, errors.NewExportError("failed to create export directory", "", destDir, err)
	}

	x.mu.Lock()
	x.reserved = make(map[string]bool)
	x.mu.Unlock()

	results := make([]types.ExportResult, len(selected))
	handled := make([]bool, len(selected))
	var done atomic.Int64
	total := len(selected)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Workers)
	for i, e := range selected {
		i, e := i, e
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = x.exportOne(gctx, e, destDir)
			handled[i] = true
			if progress != nil {
				progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.ExportResult, 0, len(results))
	for i, r := range results {
		if handled[i] {
			out = append(out, r)
		}
	}
	if err := ctx.Err(); err != nil {
		logger.Warnf("export cancelled after %d of %d files", len(out), total)
		return out, err
	}

	failed := lo.CountBy(out, func(r types.ExportResult) bool { return r.Error != nil })
	logger.With(log.F("failed", failed)).Info("Export finished")
	return out, nil
}

func (x *Exporter) exportOne(ctx context.Context, e catalog.Entry, destDir string) types.ExportResult {
	result := types.ExportResult{
		SourcePath: e.Path,
		Rating:     x.ratings.Get(e.Path),
	}

	dest, err := x.destination(e, destDir)
	if err != nil {
		result.Error = errors.NewExportError("failed to choose destination", e.Path, dest, err)
		return result
	}
	if dest == "" {
		result.Skipped = true
		return result
	}
	result.DestinationPath = dest

	img, err := x.decoder.Decode(ctx, e.Path)
	if err != nil {
		result.Error = errors.NewExportError("failed to decode", e.Path, dest, err)
		log.LogWithError(result.Error).Warn("Export skipped file")
		return result
	}
	if err := writeJPEG(dest, img, x.opts.Quality); err != nil {
		result.Error = errors.NewExportError("failed to write jpeg", e.Path, dest, err)
		log.LogWithError(result.Error).Warn("Export skipped file")
		return result
	}

	result.Exported = true
	log.LogWithFields(log.F("source", e.Path), log.F("destination", dest)).Debug("Exported")
	return result
}

// destination resolves the output path for e, applying the collision
// strategy against existing files and files reserved by other workers. An
// empty path means skip.
func (x *Exporter) destination(e catalog.Entry, destDir string) (string, error) {
	stem := strings.TrimSuffix(e.Name, filepath.Ext(e.Name))
	dest := filepath.Join(destDir, stem+".jpg")

	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.taken(dest) {
		x.reserved[dest] = true
		return dest, nil
	}

	switch x.opts.Collision {
	case CollisionSkip, CollisionOverwrite, CollisionRename:
	default:
		return "", fmt.Errorf("unknown collision strategy: %s", x.opts.Collision)
	}

	// A name claimed earlier in this batch is never skipped or overwritten;
	// the strategies only apply to files already on disk.
	if !x.reserved[dest] {
		switch x.opts.Collision {
		case CollisionSkip:
			log.Infof("skipping %s: %s exists", e.Name, dest)
			return "", nil
		case CollisionOverwrite:
			x.reserved[dest] = true
			return dest, nil
		}
	}

	for counter := 1; counter <= 1000; counter++ {
		candidate := filepath.Join(destDir, fmt.Sprintf("%s_%d.jpg", stem, counter))
		if !x.taken(candidate) {
			x.reserved[candidate] = true
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to find unique name for %s after 1000 attempts", dest)
}

// taken reports whether path exists on disk or was claimed earlier in the
// batch. Reservations are kept for the whole batch. Callers hold mu.
func (x *Exporter) taken(path string) bool {
	if x.reserved[path] {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// writeJPEG encodes into a uniquely named temporary file next to dest and
// renames it into place, so a destination never holds a partial JPEG.
func writeJPEG(dest string, img image.Image, quality int) error {
	tmp := filepath.Join(filepath.Dir(dest), "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
