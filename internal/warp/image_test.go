package warp

import (
	"image"
	"image/color"
	"math"
	"testing"

	"asift/internal/affine"
	"asift/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareImage returns a black w x h image with a white square of side s at (x, y).
func squareImage(w, h, x, y, s int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for j := y; j < y+s; j++ {
		for i := x; i < x+s; i++ {
			img.SetGray(i, j, color.Gray{Y: 255})
		}
	}
	return img
}

// centroid returns the intensity-weighted centre of img in continuous
// coordinates (pixel i spans [i, i+1)).
func centroid(img image.Image) geometry.Point2D {
	b := img.Bounds()
	var sx, sy, sw float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			sx += (float64(x-b.Min.X) + 0.5) * v
			sy += (float64(y-b.Min.Y) + 0.5) * v
			sw += v
		}
	}
	return geometry.Point2D{X: sx / sw, Y: sy / sw}
}

func TestImageWarper_Identity(t *testing.T) {
	src := squareImage(32, 32, 4, 4, 4)
	out, inv, err := NewImageWarper().Warp(src, affine.Identity)
	require.NoError(t, err)

	assert.Same(t, src, out)
	assert.Equal(t, geometry.Identity(), inv)
}

func TestImageWarper_Size(t *testing.T) {
	w := NewImageWarper()
	src := squareImage(64, 48, 0, 0, 1)

	out, _, err := w.Warp(src, affine.MustParams(2, 0))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 24), out.Bounds().Size())

	out, _, err = w.Warp(src, affine.MustParams(1, 90))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(48, 64), out.Bounds().Size())
	assert.Equal(t, image.Pt(64, 48), w.Size(src))
}

func TestImageWarper_InverseTracksContent(t *testing.T) {
	src := squareImage(96, 96, 30, 50, 6)
	want := geometry.Point2D{X: 33, Y: 53}

	w := &ImageWarper{}
	for _, p := range []affine.Params{
		affine.MustParams(2, 0),
		affine.MustParams(math.Sqrt2, 45),
		affine.MustParams(2, 108),
		affine.MustParams(1, 30),
	} {
		out, inv, err := w.Warp(src, p)
		require.NoError(t, err, "%s", p)

		got := inv.Apply(centroid(out))
		assert.InDelta(t, want.X, got.X, 0.75, "%s", p)
		assert.InDelta(t, want.Y, got.Y, 0.75, "%s", p)
	}
}

func TestImageWarper_DoesNotModifySource(t *testing.T) {
	src := squareImage(40, 40, 10, 10, 5)
	before := append([]uint8(nil), src.Pix...)

	_, _, err := NewImageWarper().Warp(src, affine.MustParams(2, 36))
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestImageWarper_SubImage(t *testing.T) {
	full := squareImage(80, 80, 50, 50, 6)
	sub := full.SubImage(image.Rect(40, 40, 80, 80))

	out, inv, err := NewImageWarper().Warp(sub, affine.MustParams(2, 0))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 20), out.Bounds().Size())

	got := inv.Apply(centroid(out))
	assert.InDelta(t, 13, got.X, 0.75)
	assert.InDelta(t, 13, got.Y, 0.75)
}

func TestImageWarper_Degenerate(t *testing.T) {
	_, _, err := NewImageWarper().Warp(squareImage(20, 20, 0, 0, 1), affine.MustParams(4, 0))
	assert.ErrorIs(t, err, affine.ErrDegenerate)
}

func TestGaussianKernelY(t *testing.T) {
	k := GaussianKernelY(1.2)
	assert.Equal(t, 1, k.MaxX())
	assert.Equal(t, 2*4+1, k.MaxY())

	var sum float64
	for y := 0; y < k.MaxY(); y++ {
		sum += k.At(0, y)
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.Equal(t, k.At(0, 0), k.At(0, k.MaxY()-1))
	assert.Greater(t, k.At(0, 4), k.At(0, 3))

	assert.Panics(t, func() { GaussianKernelY(0) })
}
