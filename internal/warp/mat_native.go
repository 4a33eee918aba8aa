//go:build !purego

package warp

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"asift/internal/affine"
	"asift/pkg/geometry"

	"gocv.io/x/gocv"
)

// MatWarper renders simulations of OpenCV matrices.
type MatWarper struct {
	Interpolation gocv.InterpolationFlags
}

// NewMatWarper returns a MatWarper using linear interpolation.
func NewMatWarper() *MatWarper {
	return &MatWarper{Interpolation: gocv.InterpolationLinear}
}

// Size returns the matrix dimensions.
func (w *MatWarper) Size(m gocv.Mat) image.Point {
	return image.Pt(m.Cols(), m.Rows())
}

// Warp renders simulation p of m into a new Mat owned by the caller. The
// identity simulation returns a clone of m.
func (w *MatWarper) Warp(m gocv.Mat, p affine.Params) (gocv.Mat, geometry.AffineTransform, error) {
	if m.Empty() {
		return gocv.NewMat(), geometry.AffineTransform{}, fmt.Errorf("empty image")
	}
	g, err := affine.Simulate(p, m.Cols(), m.Rows())
	if err != nil {
		return gocv.NewMat(), geometry.AffineTransform{}, err
	}
	if p.IsIdentity() {
		return m.Clone(), g.Inverse, nil
	}

	rotated := w.warpAffine(m, g.Rotate, g.RotatedSize)
	defer rotated.Close()

	if g.Sigma > 0 {
		// 1-pixel wide kernel: blur along y only
		ksize := 2*int(math.Ceil(3*g.Sigma)) + 1
		gocv.GaussianBlur(rotated, &rotated, image.Pt(1, ksize), 0, g.Sigma, gocv.BorderDefault)
	}

	return w.warpAffine(rotated, g.Tilt, g.Size), g.Inverse, nil
}

// warpAffine applies transform to src, producing a size.X x size.Y image.
func (w *MatWarper) warpAffine(src gocv.Mat, transform geometry.AffineTransform, size image.Point) gocv.Mat {
	// Create transform matrix for GoCV
	transformMat := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	transformMat.SetDoubleAt(0, 0, transform.A)
	transformMat.SetDoubleAt(0, 1, transform.B)
	transformMat.SetDoubleAt(0, 2, transform.TX)
	transformMat.SetDoubleAt(1, 0, transform.C)
	transformMat.SetDoubleAt(1, 1, transform.D)
	transformMat.SetDoubleAt(1, 2, transform.TY)

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, transformMat, size,
		w.Interpolation, gocv.BorderConstant, color.RGBA{R: 0, G: 0, B: 0, A: 0})
	return dst
}
