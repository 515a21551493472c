// Package analysis reads shooting metadata from RAW files.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"rawcull/internal/errors"
	"rawcull/internal/log"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/samber/lo"
)

var registerOnce sync.Once

// Metadata is the EXIF subset shown next to an image. Zero fields were not
// present in the file.
type Metadata struct {
	Path        string
	Make        string
	Model       string
	Lens        string
	Taken       time.Time
	Exposure    string // e.g. "1/250"
	FNumber     float64
	FocalLength float64
	ISO         int
}

// Camera joins make and model, dropping the make when the model already
// starts with the brand.
func (m Metadata) Camera() string {
	brand := strings.Fields(m.Make)
	if len(brand) == 0 {
		return m.Model
	}
	if m.Model == "" {
		return m.Make
	}
	if strings.HasPrefix(strings.ToLower(m.Model), strings.ToLower(brand[0])) {
		return m.Model
	}
	return m.Make + " " + m.Model
}

// Summary renders camera and exposure in one line, e.g.
// "FUJIFILM X-T3  23mm  1/250s  f/2.8  ISO 400".
func (m Metadata) Summary() string {
	return joinNonEmpty(m.Camera(), m.Settings())
}

// Settings renders focal length, shutter speed, aperture and ISO.
func (m Metadata) Settings() string {
	var parts []string
	if m.FocalLength > 0 {
		parts = append(parts, fmt.Sprintf("%gmm", m.FocalLength))
	}
	if m.Exposure != "" {
		parts = append(parts, m.Exposure+"s")
	}
	if m.FNumber > 0 {
		parts = append(parts, fmt.Sprintf("f/%g", m.FNumber))
	}
	if m.ISO > 0 {
		parts = append(parts, fmt.Sprintf("ISO %d", m.ISO))
	}
	return joinNonEmpty(parts...)
}

func joinNonEmpty(parts ...string) string {
	return strings.Join(lo.Compact(parts), "  ")
}

// Embedder returns the embedded JPEG of a RAW file.
type Embedder interface {
	Embedded(ctx context.Context, path string) ([]byte, error)
}

// Engine extracts EXIF metadata. TIFF-based RAW files are read directly;
// for other formats the EXIF block of the embedded JPEG is used.
type Engine struct {
	embedder Embedder
}

// New creates an Engine and registers the maker note parsers.
func New(embedder Embedder) *Engine {
	registerOnce.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})
	return &Engine{embedder: embedder}
}

// Analyze returns the metadata of the RAW file at path.
func (e *Engine) Analyze(ctx context.Context, path string) (Metadata, error) {
	logger := log.LogWithFields(log.F("path", path))

	f, err := os.Open(path)
	if err != nil {
		return Metadata{Path: path}, errors.NewDecodeError("open raw file", path, errors.DecodeFailed, err)
	}
	x, err := decode(f)
	f.Close()
	if err != nil {
		logger.Debugf("No EXIF in container, trying embedded preview: %v", err)
		data, embErr := e.embedder.Embedded(ctx, path)
		if embErr != nil {
			return Metadata{Path: path}, embErr
		}
		if x, err = decode(bytes.NewReader(data)); err != nil {
			return Metadata{Path: path}, errors.NewDecodeError("no exif metadata", path, errors.UnsupportedFormat, err)
		}
	}
	return fromExif(path, x), nil
}

// decode wraps exif.Decode, tolerating non-critical errors in sub-IFDs.
func decode(r io.Reader) (x *exif.Exif, err error) {
	defer func() {
		if p := recover(); p != nil {
			x, err = nil, errors.Newf("exif decoder panic: %v", p)
		}
	}()
	x, err = exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}
	return x, nil
}

func fromExif(path string, x *exif.Exif) Metadata {
	m := Metadata{
		Path:  path,
		Make:  stringField(x, exif.Make),
		Model: stringField(x, exif.Model),
		Lens:  stringField(x, exif.LensModel),
	}
	if t, err := x.DateTime(); err == nil {
		m.Taken = t
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			m.Exposure = formatExposure(num, den)
		}
	}
	m.FNumber = ratField(x, exif.FNumber)
	m.FocalLength = ratField(x, exif.FocalLength)
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			m.ISO = iso
		}
	}
	return m
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func ratField(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// formatExposure renders 1/250 for short exposures and 2 or 1.5 for long
// ones.
func formatExposure(num, den int64) string {
	if num >= den {
		return fmt.Sprintf("%g", float64(num)/float64(den))
	}
	if num > 1 && den%num == 0 {
		den, num = den/num, 1
	}
	return fmt.Sprintf("%d/%d", num, den)
}
