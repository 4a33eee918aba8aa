package affine

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTilts is returned by Generate for a non-positive tilt count.
var ErrInvalidTilts = errors.New("affine: tilt count must be positive")

// Progression constants of the sweep. Tilt level k (1-based) uses
// t = TiltStep^(k-1); each level above the first samples rotations with a
// spacing of roughly 72/t degrees over [0, 180).
const (
	TiltStep        = math.Sqrt2
	rotationDensity = 10
)

// Order is the deterministic, duplicate-free sequence of simulations for a tilt
// count. It is immutable once generated.
type Order struct {
	tilts  int
	params []Params
	index  map[Params]int
}

// Generate builds the simulation order for the given number of tilt levels.
//
// Level 1 is the identity. Level k > 1 has tilt t = √2^(k-1) and n rotations
// θ = r·180/n for r = 0..n-1, where n is round(10·t/2) rounded up to an even
// number and halved. For tilts = 1..5 this gives 1, 5, 10, 17 and 27
// simulations.
func Generate(tilts int) (*Order, error) {
	if tilts <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTilts, tilts)
	}

	o := &Order{tilts: tilts}
	o.params = append(o.params, Identity)
	for level := 2; level <= tilts; level++ {
		t := TiltForLevel(level)
		n := RotationsForTilt(t)
		for r := 0; r < n; r++ {
			o.params = append(o.params, Params{Tilt: t, Theta: float64(r) * 180 / float64(n)})
		}
	}

	o.index = make(map[Params]int, len(o.params))
	for i, p := range o.params {
		if _, dup := o.index[p]; dup {
			return nil, fmt.Errorf("affine: duplicate simulation %s at %d", p, i)
		}
		o.index[p] = i
	}
	return o, nil
}

// TiltForLevel returns √2^(level-1). Even exponents are exact powers of two.
func TiltForLevel(level int) float64 {
	if level <= 1 {
		return 1
	}
	e := level - 1
	t := math.Ldexp(1, e/2)
	if e%2 == 1 {
		t *= TiltStep
	}
	return t
}

// RotationsForTilt returns how many rotations are sampled at tilt t.
func RotationsForTilt(t float64) int {
	if t <= 1 {
		return 1
	}
	n := int(math.Round(rotationDensity * t / 2))
	if n%2 == 1 {
		n++
	}
	n /= 2
	if n < 1 {
		n = 1
	}
	return n
}

// Tilts returns the tilt count the order was generated from.
func (o *Order) Tilts() int { return o.tilts }

// Len returns the number of simulations.
func (o *Order) Len() int { return len(o.params) }

// At returns the i-th simulation.
func (o *Order) At(i int) Params { return o.params[i] }

// IndexOf returns the position of p in the order.
func (o *Order) IndexOf(p Params) (int, bool) {
	i, ok := o.index[p]
	return i, ok
}

// Contains reports whether p is part of the order.
func (o *Order) Contains(p Params) bool {
	_, ok := o.index[p]
	return ok
}

// Params returns a copy of the ordered simulations.
func (o *Order) Params() []Params {
	out := make([]Params, len(o.params))
	copy(out, o.params)
	return out
}
