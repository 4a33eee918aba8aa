//go:build !purego

package imageio

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ToMat converts img to an 8-bit Mat owned by the caller: one channel for
// *image.Gray, BGR for everything else. Alpha is dropped.
func ToMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Empty() {
		return gocv.NewMat(), fmt.Errorf("imageio: empty image")
	}

	var (
		data []byte
		mt   gocv.MatType
	)
	if g, ok := img.(*image.Gray); ok {
		data, mt = grayBytes(g), gocv.MatTypeCV8UC1
	} else {
		data, mt = bgrBytes(ToRGBA(img)), gocv.MatTypeCV8UC3
	}

	// the Mat borrows data; the clone owns its pixels
	m, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), mt, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("imageio: %w", err)
	}
	defer m.Close()
	return m.Clone(), nil
}
