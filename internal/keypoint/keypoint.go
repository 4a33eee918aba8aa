// Package keypoint defines the detected feature types and their exchange formats.
package keypoint

import (
	"math"

	"asift/internal/affine"
	"asift/pkg/geometry"
)

// Keypoint is a local feature. X and Y are pixel coordinates, Scale is the
// detector's sigma, Orientation is in radians in [0, 2π).
type Keypoint struct {
	X           float64 `json:"x" csv:"x"`
	Y           float64 `json:"y" csv:"y"`
	Scale       float64 `json:"scale" csv:"scale"`
	Orientation float64 `json:"orientation" csv:"orientation"`
	Descriptor  []byte  `json:"descriptor,omitempty" csv:"-"`
}

// Location returns the keypoint position.
func (k Keypoint) Location() geometry.Point2D {
	return geometry.Point2D{X: k.X, Y: k.Y}
}

// SimulationKeypoint is a keypoint tagged with the simulation that found it
// and that simulation's position in the order.
type SimulationKeypoint struct {
	Keypoint
	Params affine.Params `json:"params"`
	Index  int           `json:"index"`
}

// Transform maps kp through t. The location goes through the full transform,
// the orientation follows the transformed direction vector and the scale is
// multiplied by sqrt(|det|) of the linear part. The descriptor is shared.
func Transform(kp Keypoint, t geometry.AffineTransform) Keypoint {
	loc := t.Apply(kp.Location())
	dir := t.ApplyLinear(geometry.Point2D{X: math.Cos(kp.Orientation), Y: math.Sin(kp.Orientation)})

	out := kp
	out.X, out.Y = loc.X, loc.Y
	out.Scale = kp.Scale * math.Sqrt(math.Abs(t.Det()))
	out.Orientation = NormalizeAngle(math.Atan2(dir.Y, dir.X))
	return out
}

// NormalizeAngle wraps a radian angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
