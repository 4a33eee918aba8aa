// Package warp renders simulated affine views of an image.
package warp

import (
	"fmt"
	"image"
	"math"

	"asift/internal/affine"
	"asift/pkg/geometry"

	"github.com/anthonynsimon/bild/convolution"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ImageWarper renders simulations of image.Image values in pure Go.
// The zero value uses bilinear interpolation.
type ImageWarper struct {
	Interpolator draw.Interpolator
}

// NewImageWarper returns a bilinear ImageWarper.
func NewImageWarper() *ImageWarper {
	return &ImageWarper{Interpolator: draw.BiLinear}
}

// Size returns the image dimensions.
func (w *ImageWarper) Size(img image.Image) image.Point {
	return img.Bounds().Size()
}

// Warp rotates img onto a canvas holding the whole rotated image, blurs it
// along y and compresses y by the tilt. The identity simulation of an image
// anchored at the origin returns img itself. Coordinates are relative to
// img.Bounds().Min.
func (w *ImageWarper) Warp(img image.Image, p affine.Params) (image.Image, geometry.AffineTransform, error) {
	b := img.Bounds()
	g, err := affine.Simulate(p, b.Dx(), b.Dy())
	if err != nil {
		return nil, geometry.AffineTransform{}, err
	}
	if p.IsIdentity() && b.Min == (image.Point{}) {
		return img, g.Inverse, nil
	}

	interp := w.Interpolator
	if interp == nil {
		interp = draw.BiLinear
	}

	// rotated always has its origin at (0, 0)
	var rotated image.Image
	if p.Theta == 0 && b.Min == (image.Point{}) {
		rotated = img
	} else {
		canvas := image.NewRGBA(image.Rectangle{Max: g.RotatedSize})
		s2d := g.Rotate.Compose(geometry.Translation(-float64(b.Min.X), -float64(b.Min.Y)))
		interp.Transform(canvas, aff3(s2d), img, b, draw.Src, nil)
		rotated = canvas
	}

	if g.Sigma > 0 {
		rotated = convolution.Convolve(rotated, GaussianKernelY(g.Sigma), &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false})
	}

	dst := image.NewRGBA(image.Rectangle{Max: g.Size})
	interp.Transform(dst, aff3(g.Tilt), rotated, rotated.Bounds(), draw.Src, nil)

	return dst, g.Inverse, nil
}

// GaussianKernelY returns a normalized vertical Gaussian kernel of radius
// ceil(3 sigma).
func GaussianKernelY(sigma float64) convolution.Matrix {
	if sigma <= 0 {
		panic(fmt.Sprintf("warp: sigma %v must be positive", sigma))
	}
	radius := int(math.Ceil(3 * sigma))
	k := convolution.NewKernel(1, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		k.Matrix[i+radius] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}
	return k.Normalized()
}

func aff3(t geometry.AffineTransform) f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
}
