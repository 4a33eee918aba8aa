package affine

import (
	"errors"
	"fmt"
	"image"
	"math"

	"asift/pkg/geometry"
)

// ErrDegenerate is returned when a simulation cannot produce a usable image.
var ErrDegenerate = errors.New("affine: degenerate simulation")

const (
	// MinSimulatedSize is the smallest simulated canvas edge, in pixels.
	MinSimulatedSize = 8

	// AntiAliasFactor scales the Gaussian applied along y before the tilt:
	// sigma = AntiAliasFactor * sqrt(t² - 1).
	AntiAliasFactor = 0.8

	sizeEpsilon = 1e-6
)

// Geometry describes how one simulated image is derived from the original.
// The simulated image is the original rotated by Theta (the rotated bounds
// shifted to the origin), blurred along y by Sigma and compressed along y by Tilt.
type Geometry struct {
	Params Params

	// Source is the original image frame, [0,W) x [0,H).
	Source geometry.Rect

	// Rotate maps original coordinates onto the rotated canvas of RotatedSize.
	Rotate      geometry.AffineTransform
	RotatedSize image.Point

	// Tilt maps the rotated canvas onto the simulated canvas.
	Tilt geometry.AffineTransform

	// Forward maps original -> simulated, Inverse maps simulated -> original.
	Forward geometry.AffineTransform
	Inverse geometry.AffineTransform

	// Size is the simulated canvas.
	Size image.Point

	// Sigma is the anti-aliasing blur along y of the rotated canvas; 0 when Tilt is 1.
	Sigma float64
}

// Simulate computes the geometry of simulation p for a width x height image.
func Simulate(p Params, width, height int) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: empty %dx%d image", ErrDegenerate, width, height)
	}
	if math.IsNaN(p.Tilt) || math.IsInf(p.Tilt, 0) || p.Tilt < 1 {
		return Geometry{}, fmt.Errorf("%w: tilt %v", ErrDegenerate, p.Tilt)
	}

	w, h := float64(width), float64(height)
	rot := geometry.Rotation(p.Radians())
	corners := []geometry.Point2D{
		rot.Apply(geometry.Point2D{X: 0, Y: 0}),
		rot.Apply(geometry.Point2D{X: w, Y: 0}),
		rot.Apply(geometry.Point2D{X: 0, Y: h}),
		rot.Apply(geometry.Point2D{X: w, Y: h}),
	}
	bb := geometry.BoundingBox(corners)

	g := Geometry{
		Params: p,
		Source: geometry.Rect{Width: w, Height: h},
		Rotate: geometry.Translation(-bb.X, -bb.Y).Compose(rot),
		RotatedSize: image.Pt(
			int(math.Ceil(bb.Width-sizeEpsilon)),
			int(math.Ceil(bb.Height-sizeEpsilon)),
		),
		Tilt: geometry.Scale(1, 1/p.Tilt),
	}
	g.Size = image.Pt(
		g.RotatedSize.X,
		int(math.Ceil(float64(g.RotatedSize.Y)/p.Tilt-sizeEpsilon)),
	)
	if g.Size.X < MinSimulatedSize || g.Size.Y < MinSimulatedSize {
		return Geometry{}, fmt.Errorf("%w: %s collapses %dx%d to %dx%d",
			ErrDegenerate, p, width, height, g.Size.X, g.Size.Y)
	}

	g.Forward = g.Tilt.Compose(g.Rotate)
	inv, err := g.Forward.Inverse()
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %s: %v", ErrDegenerate, p, err)
	}
	g.Inverse = inv

	if p.Tilt > 1 {
		g.Sigma = AntiAliasFactor * math.Sqrt(p.Tilt*p.Tilt-1)
	}
	return g, nil
}
