// Package raw pulls displayable images out of camera RAW files.
//
// Demosaicing sensor data is out of scope. Every mainstream RAW format embeds
// at least one JPEG rendered by the camera, usually at full resolution, and
// that is what this package decodes. Fujifilm RAF files point at their JPEG
// from a fixed header slot; TIFF-based formats (NEF, CR2, ARW, DNG, ...) are
// searched for embedded JPEG streams and the best-sized one is used.
package raw

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/jpeg"
	"io"
	"os"

	"rawcull/internal/errors"
	"rawcull/internal/log"
)

const (
	rafMagic        = "FUJIFILMCCD-RAW"
	rafOffsetSlot   = 84
	rafHeaderLength = 92

	// maxCandidates bounds how many SOI markers are examined per file.
	maxCandidates = 64
)

var soiMarker = []byte{0xff, 0xd8, 0xff}

// Info describes the embedded preview of a RAW file without decoding it.
type Info struct {
	Path        string
	Width       int // embedded JPEG size, before orientation
	Height      int
	Orientation Orientation
}

// Decoder decodes embedded previews. The zero value is ready to use.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode returns the largest embedded image, rotated upright.
func (d *Decoder) Decode(ctx context.Context, path string) (image.Image, error) {
	return d.decode(ctx, path, 0)
}

// Preview returns an upright image whose longest edge is at most maxDim.
// It prefers the smallest embedded JPEG that is still at least maxDim large,
// which keeps thumbnail decoding cheap for formats with several previews.
func (d *Decoder) Preview(ctx context.Context, path string, maxDim int) (image.Image, error) {
	img, err := d.decode(ctx, path, maxDim)
	if err != nil {
		return nil, err
	}
	return Fit(img, maxDim), nil
}

// Embedded returns the largest embedded JPEG stream undecoded.
func (d *Decoder) Embedded(ctx context.Context, path string) ([]byte, error) {
	jpegData, _, err := load(ctx, path, 0)
	return jpegData, err
}

// Inspect reports preview dimensions and orientation.
func (d *Decoder) Inspect(ctx context.Context, path string) (Info, error) {
	jpegData, container, err := load(ctx, path, 0)
	if err != nil {
		return Info{}, err
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegData))
	if err != nil {
		return Info{}, errors.NewDecodeError("read preview header", path, errors.DecodeFailed, err)
	}
	return Info{
		Path:        path,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: orientationOf(jpegData, container),
	}, nil
}

func (d *Decoder) decode(ctx context.Context, path string, minDim int) (image.Image, error) {
	jpegData, container, err := load(ctx, path, minDim)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, errors.NewDecodeError("decode embedded jpeg", path, errors.DecodeFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orient := orientationOf(jpegData, container)
	log.Debugf("decoded %s: %dx%d orientation=%d", path, img.Bounds().Dx(), img.Bounds().Dy(), orient)
	return Orient(img, orient), nil
}

// load returns the chosen JPEG stream and the bytes of the surrounding
// container that are worth searching for EXIF.
func load(ctx context.Context, path string, minDim int) (jpegData, container []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewDecodeError("open raw file", path, errors.DecodeFailed, err)
	}
	defer f.Close()

	header := make([]byte, rafHeaderLength)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, nil, errors.NewDecodeError("read raw header", path, errors.DecodeFailed, err)
	}
	header = header[:n]

	if isRAF(header) {
		info, err := f.Stat()
		if err != nil {
			return nil, nil, errors.NewDecodeError("stat raw file", path, errors.DecodeFailed, err)
		}
		jpegData, err := readRAFPreview(f, header, info.Size())
		if err != nil {
			return nil, nil, errors.NewDecodeError("read raf preview", path, errors.DecodeFailed, err)
		}
		return jpegData, nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.NewDecodeError("read raw file", path, errors.DecodeFailed, err)
	}
	jpegData = pickEmbedded(data, minDim)
	if jpegData == nil {
		return nil, nil, errors.NewDecodeError("no embedded preview", path, errors.UnsupportedFormat, nil)
	}
	return jpegData, data, nil
}

func isRAF(header []byte) bool {
	return len(header) >= rafHeaderLength && string(header[:len(rafMagic)]) == rafMagic
}

// readRAFPreview reads the JPEG the header points at. The header is
// untrusted: a preview reaching past the end of the file is rejected before
// anything is allocated.
func readRAFPreview(r io.ReaderAt, header []byte, size int64) ([]byte, error) {
	offset := binary.BigEndian.Uint32(header[rafOffsetSlot:])
	length := binary.BigEndian.Uint32(header[rafOffsetSlot+4:])
	if length == 0 {
		return nil, errors.New("raf header has no preview")
	}
	if int64(offset)+int64(length) > size {
		return nil, errors.Newf("raf preview at offset %d length %d exceeds file size %d", offset, length, size)
	}
	buf := make([]byte, length)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(buf, soiMarker) {
		return nil, errors.Newf("raf preview at offset %d is not a jpeg", offset)
	}
	return buf, nil
}

type candidate struct {
	data []byte
	area int
	long int
}

// pickEmbedded scans data for JPEG streams. With minDim > 0 it returns the
// smallest stream whose longest edge reaches minDim, otherwise the largest.
func pickEmbedded(data []byte, minDim int) []byte {
	var found []candidate
	pos := 0
	for len(found) < maxCandidates {
		i := bytes.Index(data[pos:], soiMarker)
		if i < 0 {
			break
		}
		start := pos + i
		pos = start + len(soiMarker)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data[start:]))
		if err != nil || cfg.Width == 0 || cfg.Height == 0 {
			continue
		}
		found = append(found, candidate{
			data: data[start:],
			area: cfg.Width * cfg.Height,
			long: max(cfg.Width, cfg.Height),
		})
	}
	if len(found) == 0 {
		return nil
	}

	best := found[0]
	for _, c := range found[1:] {
		if c.area > best.area {
			best = c
		}
	}
	if minDim <= 0 {
		return best.data
	}
	for _, c := range found {
		if c.long >= minDim && c.area < best.area {
			best = c
		}
	}
	return best.data
}
