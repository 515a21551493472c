package raw

import (
	"image"
	"image/draw"

	"rawcull/internal/log"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	xdraw "golang.org/x/image/draw"
)

// exifSearchWindow limits the EXIF search inside an embedded JPEG to its
// APP1 segment, which cannot exceed 64KiB.
const exifSearchWindow = 64 << 10

// Orientation is the EXIF orientation tag value, 1 through 8.
type Orientation int

const (
	OrientNormal Orientation = 1
	OrientRot180 Orientation = 3
	OrientRot90  Orientation = 6 // rotate 90 degrees clockwise to display
	OrientRot270 Orientation = 8 // rotate 270 degrees clockwise to display
)

// Rotation returns the clockwise rotation in degrees needed to display the
// image upright. Mirrored variants map to their rotation only.
func (o Orientation) Rotation() int {
	switch o {
	case 3, 4:
		return 180
	case 5, 6:
		return 90
	case 7, 8:
		return 270
	default:
		return 0
	}
}

// orientationOf reads the orientation from the JPEG's own EXIF block first and
// the RAW container second. Missing or unreadable EXIF means upright.
func orientationOf(jpegData, container []byte) Orientation {
	window := jpegData
	if len(window) > exifSearchWindow {
		window = window[:exifSearchWindow]
	}
	if o, ok := readOrientation(window); ok {
		return o
	}
	if len(container) > 0 {
		if o, ok := readOrientation(container); ok {
			return o
		}
	}
	return OrientNormal
}

func readOrientation(data []byte) (o Orientation, ok bool) {
	// go-exif reports some malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("exif parse panic: %v", r)
			o, ok = OrientNormal, false
		}
	}()

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return OrientNormal, false
	}
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return OrientNormal, false
	}
	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil || index.RootIfd == nil {
		return OrientNormal, false
	}

	results, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(results) == 0 {
		return OrientNormal, false
	}
	value, err := results[0].Value()
	if err != nil {
		return OrientNormal, false
	}
	vals, isShort := value.([]uint16)
	if !isShort || len(vals) == 0 || vals[0] < 1 || vals[0] > 8 {
		return OrientNormal, false
	}
	return Orientation(vals[0]), true
}

// Orient rotates img so it displays upright.
func Orient(img image.Image, o Orientation) image.Image {
	switch o.Rotation() {
	case 90:
		return Rotate90(img)
	case 180:
		return Rotate180(img)
	case 270:
		return Rotate270(img)
	default:
		return img
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Rotate90 rotates clockwise by 90 degrees.
func Rotate90(img image.Image) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, h-1-y, x, src, x, y)
		}
	}
	return dst
}

// Rotate180 rotates by 180 degrees.
func Rotate180(img image.Image) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, w-1-x, h-1-y, src, x, y)
		}
	}
	return dst
}

// Rotate270 rotates clockwise by 270 degrees.
func Rotate270(img image.Image) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, y, w-1-x, src, x, y)
		}
	}
	return dst
}

func copyPixel(dst *image.RGBA, dx, dy int, src *image.RGBA, sx, sy int) {
	di := dst.PixOffset(dx, dy)
	si := src.PixOffset(sx, sy)
	copy(dst.Pix[di:di+4], src.Pix[si:si+4])
}

// Fit scales img down so its longest edge is at most maxDim, keeping the
// aspect ratio. Images already small enough are returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
