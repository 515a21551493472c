package testutils

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestImage returns a w x h image with a horizontal gradient and a red
// top-left pixel block, so rotations can be told apart.
func TestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / max(w-1, 1))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 0; y < min(4, h); y++ {
		for x := 0; x < min(4, w); x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return img
}

// EncodeJPEG encodes img at high quality.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// RAFBytes lays out a minimal Fujifilm RAF: magic, then the big-endian
// JPEG offset/length pair at byte 84, then the JPEG itself.
func RAFBytes(jpegData []byte) []byte {
	const headerLen = 160
	out := make([]byte, headerLen, headerLen+len(jpegData))
	copy(out, "FUJIFILMCCD-RAW 0201FF383501")
	binary.BigEndian.PutUint32(out[84:], headerLen)
	binary.BigEndian.PutUint32(out[88:], uint32(len(jpegData)))
	return append(out, jpegData...)
}

// ContainerBytes wraps JPEG streams between filler bytes, the way TIFF-based
// RAW formats (NEF, CR2, ARW, DNG) interleave previews with sensor data.
func ContainerBytes(jpegs ...[]byte) []byte {
	out := []byte("II*\x00\x08\x00\x00\x00")
	filler := bytes.Repeat([]byte{0x5a, 0x00, 0xff, 0x12}, 64)
	for _, j := range jpegs {
		out = append(out, filler...)
		out = append(out, j...)
	}
	return append(out, filler...)
}

// ExifFields are the tags ExifTIFF writes.
type ExifFields struct {
	Make     string
	Model    string
	Taken    string // "2006:01:02 15:04:05"
	ISO      uint16
	Exposure [2]uint32 // numerator, denominator
	FNumber  [2]uint32
}

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// ExifTIFF builds a little-endian TIFF blob with an IFD0 (Make, Model) and
// an Exif sub-IFD (ExposureTime, FNumber, ISO, DateTimeOriginal).
func ExifTIFF(f ExifFields) []byte {
	le := binary.LittleEndian
	ascii := func(tag uint16, s string) tiffEntry {
		b := append([]byte(s), 0)
		return tiffEntry{tag: tag, typ: 2, count: uint32(len(b)), data: b}
	}
	rational := func(tag uint16, r [2]uint32) tiffEntry {
		b := make([]byte, 8)
		le.PutUint32(b, r[0])
		le.PutUint32(b[4:], r[1])
		return tiffEntry{tag: tag, typ: 5, count: 1, data: b}
	}
	iso := make([]byte, 2)
	le.PutUint16(iso, f.ISO)

	out := []byte("II*\x00\x00\x00\x00\x00")
	exifStart := len(out)
	out = appendIFD(out, []tiffEntry{
		rational(0x829a, f.Exposure),
		rational(0x829d, f.FNumber),
		{tag: 0x8827, typ: 3, count: 1, data: iso},
		ascii(0x9003, f.Taken),
	})

	ptr := make([]byte, 4)
	le.PutUint32(ptr, uint32(exifStart))
	ifd0Start := len(out)
	out = appendIFD(out, []tiffEntry{
		ascii(0x010f, f.Make),
		ascii(0x0110, f.Model),
		{tag: 0x8769, typ: 4, count: 1, data: ptr},
	})
	le.PutUint32(out[4:], uint32(ifd0Start))
	return out
}

// appendIFD writes an IFD at the end of out followed by the values that do
// not fit in an entry. Entries must be sorted by tag.
func appendIFD(out []byte, entries []tiffEntry) []byte {
	le := binary.LittleEndian
	size := 2 + 12*len(entries) + 4
	dataOff := len(out) + size

	ifd := make([]byte, size)
	le.PutUint16(ifd, uint16(len(entries)))
	var data []byte
	for i, e := range entries {
		p := ifd[2+12*i:]
		le.PutUint16(p, e.tag)
		le.PutUint16(p[2:], e.typ)
		le.PutUint32(p[4:], e.count)
		if len(e.data) <= 4 {
			copy(p[8:12], e.data)
			continue
		}
		le.PutUint32(p[8:], uint32(dataOff+len(data)))
		data = append(data, e.data...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	out = append(out, ifd...)
	return append(out, data...)
}

// WithExif inserts tiff as an APP1 Exif segment right after the SOI marker.
func WithExif(jpegData, tiff []byte) []byte {
	seg := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(2+6+len(tiff)))
	seg = append(seg, "Exif\x00\x00"...)
	seg = append(seg, tiff...)

	out := append([]byte{}, jpegData[:2]...)
	out = append(out, seg...)
	return append(out, jpegData[2:]...)
}

// WriteRAF writes a RAF file holding a w x h preview and returns its path.
func WriteRAF(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	return WriteFile(t, dir, name, RAFBytes(EncodeJPEG(t, TestImage(w, h))))
}

// WriteContainer writes a TIFF-style RAW file holding a w x h preview.
func WriteContainer(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	return WriteFile(t, dir, name, ContainerBytes(EncodeJPEG(t, TestImage(w, h))))
}

// WriteCorrupt writes a file with a RAW extension and no usable preview.
func WriteCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, bytes.Repeat([]byte("not a raw file "), 32))
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, dir, name, []byte(content))
	}
}
