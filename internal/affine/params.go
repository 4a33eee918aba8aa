// Package affine enumerates the simulated viewpoints of an affine sweep and
// computes the geometry of each simulated image.
package affine

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned for tilt or rotation values that do not describe a viewpoint.
var ErrInvalidParams = errors.New("affine: invalid simulation parameters")

// Params identifies one simulated viewpoint: a tilt (compression factor along
// the simulated y axis, 1 = no tilt) applied after an in-plane rotation of
// Theta degrees. Theta is kept in [0, 180).
//
// Params is a comparable value and may be used as a map key. Two Params that
// are geometrically close are still distinct simulations.
type Params struct {
	Tilt  float64 `json:"tilt"`
	Theta float64 `json:"theta"`
}

// Identity is the untilted, unrotated simulation.
var Identity = Params{Tilt: 1, Theta: 0}

// NewParams validates tilt and normalizes theta (degrees) into [0, 180).
func NewParams(tilt, theta float64) (Params, error) {
	if math.IsNaN(tilt) || math.IsInf(tilt, 0) || tilt < 1 {
		return Params{}, fmt.Errorf("%w: tilt %v must be a finite value >= 1", ErrInvalidParams, tilt)
	}
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return Params{}, fmt.Errorf("%w: theta %v must be finite", ErrInvalidParams, theta)
	}
	return Params{Tilt: tilt, Theta: normalizeTheta(theta)}, nil
}

// MustParams is NewParams for constant inputs; it panics on invalid values.
func MustParams(tilt, theta float64) Params {
	p, err := NewParams(tilt, theta)
	if err != nil {
		panic(err)
	}
	return p
}

// Radians returns Theta in radians.
func (p Params) Radians() float64 {
	return p.Theta * math.Pi / 180
}

// IsIdentity reports whether the simulation leaves the image unchanged.
func (p Params) IsIdentity() bool {
	return p.Tilt == 1 && p.Theta == 0
}

func (p Params) String() string {
	return fmt.Sprintf("t=%.3f θ=%.1f", p.Tilt, p.Theta)
}

func normalizeTheta(theta float64) float64 {
	theta = math.Mod(theta, 180)
	if theta < 0 {
		theta += 180
	}
	// -0 and values rounding up to 180 collapse to 0
	if theta == 0 || theta >= 180 {
		return 0
	}
	return theta
}
