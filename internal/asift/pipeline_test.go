package asift

import (
	"context"
	"image"
	"image/color"
	"testing"

	"asift/internal/keypoint"
	"asift/internal/warp"
	"asift/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobImage draws white squares of side 6 on black, one per corner in corners.
func blobImage(w, h int, corners []image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for _, c := range corners {
		for y := c.Y; y < c.Y+6; y++ {
			for x := c.X; x < c.X+6; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// blobDetector reports the intensity-weighted centroid of every 4-connected
// component brighter than a small threshold, in continuous coordinates.
func blobDetector(img image.Image) ([]keypoint.Keypoint, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = float64(color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y)
		}
	}

	seen := make([]bool, w*h)
	var kps []keypoint.Keypoint
	for start := range gray {
		if seen[start] || gray[start] <= 8 {
			continue
		}
		var sx, sy, sw float64
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			v := gray[i]
			sx += (float64(x) + 0.5) * v
			sy += (float64(y) + 0.5) * v
			sw += v
			for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if !seen[j] && gray[j] > 8 {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		kps = append(kps, keypoint.Keypoint{X: sx / sw, Y: sy / sw, Scale: 1})
	}
	return kps, nil
}

func TestEngine_ImageWarperRemapsBlobs(t *testing.T) {
	corners := []image.Point{{20, 20}, {100, 30}, {60, 80}, {130, 90}}
	src := blobImage(160, 120, corners)

	e, err := New[image.Image](DetectorFunc[image.Image](blobDetector), warp.NewImageWarper(), quietConfig().WithTilts(3))
	require.NoError(t, err)

	res, err := e.Process(context.Background(), src)
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	require.Equal(t, 10, res.Grouped.Len())

	for i := 0; i < res.Grouped.Len(); i++ {
		p, kps := res.Grouped.At(i)
		require.Len(t, kps, len(corners), "%s", p)
		for _, c := range corners {
			want := geometry.Point2D{X: float64(c.X) + 3, Y: float64(c.Y) + 3}
			best := kps[0].Location().Distance(want)
			for _, kp := range kps[1:] {
				if d := kp.Location().Distance(want); d < best {
					best = d
				}
			}
			assert.Less(t, best, 1.0, "%s blob at %v", p, c)
		}
	}
}
