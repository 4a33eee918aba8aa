// Package imageio loads input images for the detector.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupported is returned for files whose extension has no decoder.
var ErrUnsupported = errors.New("imageio: unsupported format")

// Formats are chosen by extension rather than sniffed. The tga package
// registers itself with an empty magic string, which makes image.Decode
// hand every file to the TGA decoder.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".bmp":  bmp.Decode,
	".tga":  tga.Decode,
}

// Extensions lists the file extensions Load accepts.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".tga", ".bmp"}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load decodes an image file, applying its EXIF orientation. The result is
// anchored at the origin.
func Load(path string) (image.Image, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: %w", err)
	}
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("imageio: %s is empty", path)
	}
	return anchor(orient(img, exifOrientation(data))), nil
}

// ToRGBA returns img as an RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok && r.Bounds().Min == (image.Point{}) {
		return r
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Resize scales img so that its longer edge is at most maxEdge pixels and
// returns the scale factor applied. Images already small enough are returned
// unchanged with factor 1.
func Resize(img image.Image, maxEdge int) (image.Image, float64) {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if maxEdge <= 0 || long <= maxEdge {
		return img, 1
	}
	f := float64(maxEdge) / float64(long)
	w := int(float64(b.Dx())*f + 0.5)
	h := int(float64(b.Dy())*f + 0.5)
	return imaging.Resize(img, w, h, imaging.Lanczos), f
}

func anchor(img image.Image) image.Image {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return ToRGBA(img)
}
