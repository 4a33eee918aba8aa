// Package asift runs a base keypoint detector over a sweep of simulated
// affine viewpoints and collects the results in the original image frame.
//
// The engine is generic over the image representation I. A Warper produces
// the simulated views and a Detector finds keypoints in them; gray and colour
// variants differ only in which pair is plugged in.
package asift

import (
	"image"

	"asift/internal/affine"
	"asift/internal/keypoint"
	"asift/pkg/geometry"
)

// Detector finds keypoints in an image, in that image's coordinate frame.
// An image without features yields an empty slice and a nil error.
type Detector[I any] interface {
	Detect(img I) ([]keypoint.Keypoint, error)
}

// Warper produces simulated views of an image.
type Warper[I any] interface {
	// Warp returns the simulated view for p and the transform mapping
	// simulated coordinates back to the original image. img must not be
	// modified. If the returned image, or a pointer to it, has a Close()
	// error method it is closed once detection finishes, so it must not
	// alias img. It is closed on error too; Close must tolerate whatever
	// Warp returns alongside an error, including nil pointers.
	Warp(img I, p affine.Params) (I, geometry.AffineTransform, error)

	// Size returns the width and height of img.
	Size(img I) image.Point
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc[I any] func(img I) ([]keypoint.Keypoint, error)

// Detect calls f(img).
func (f DetectorFunc[I]) Detect(img I) ([]keypoint.Keypoint, error) {
	return f(img)
}

type closer interface {
	Close() error
}
