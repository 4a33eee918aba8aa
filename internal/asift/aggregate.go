package asift

import (
	"fmt"

	"asift/internal/affine"
	"asift/internal/keypoint"
)

// Slot is the outcome of the simulation at one position of the order.
// Workers write only their own slot.
type Slot struct {
	Keypoints []keypoint.Keypoint
	Err       *SimulationError
}

// Grouped is the per-simulation view of a sweep: one group per member of the
// order, in order. A failed or featureless simulation has an empty group.
// Grouped and the slices it returns must be treated as read-only.
type Grouped struct {
	order    *affine.Order
	groups   [][]keypoint.Keypoint
	failures []*SimulationError
	total    int
}

// Collect builds the grouped view from per-position slots. len(slots) must
// equal order.Len().
func Collect(order *affine.Order, slots []Slot) *Grouped {
	if len(slots) != order.Len() {
		panic(fmt.Sprintf("asift: %d slots for %d simulations", len(slots), order.Len()))
	}

	g := &Grouped{order: order, groups: make([][]keypoint.Keypoint, len(slots))}
	for i, s := range slots {
		if s.Err != nil {
			g.failures = append(g.failures, s.Err)
		}
		if s.Keypoints == nil {
			g.groups[i] = []keypoint.Keypoint{}
			continue
		}
		g.groups[i] = s.Keypoints
		g.total += len(s.Keypoints)
	}
	return g
}

// CollectMap builds the grouped view from keypoints keyed by simulation.
// Simulations missing from results get empty groups; keys that are not part
// of order are an error.
func CollectMap(order *affine.Order, results map[affine.Params][]keypoint.Keypoint) (*Grouped, error) {
	slots := make([]Slot, order.Len())
	for p, kps := range results {
		i, ok := order.IndexOf(p)
		if !ok {
			return nil, fmt.Errorf("asift: %s is not part of the %d-tilt order", p, order.Tilts())
		}
		slots[i].Keypoints = kps
	}
	return Collect(order, slots), nil
}

// Order returns the simulation order the view is keyed by.
func (g *Grouped) Order() *affine.Order { return g.order }

// Len returns the number of groups, equal to the order length.
func (g *Grouped) Len() int { return len(g.groups) }

// At returns the i-th simulation and its keypoints.
func (g *Grouped) At(i int) (affine.Params, []keypoint.Keypoint) {
	return g.order.At(i), g.groups[i]
}

// Get returns the keypoints of simulation p.
func (g *Grouped) Get(p affine.Params) ([]keypoint.Keypoint, bool) {
	i, ok := g.order.IndexOf(p)
	if !ok {
		return nil, false
	}
	return g.groups[i], true
}

// Keys returns the simulations in order.
func (g *Grouped) Keys() []affine.Params { return g.order.Params() }

// Map returns the groups as a map. Iteration order of the map is random; use
// Keys or At for ordered access.
func (g *Grouped) Map() map[affine.Params][]keypoint.Keypoint {
	m := make(map[affine.Params][]keypoint.Keypoint, len(g.groups))
	for i, kps := range g.groups {
		m[g.order.At(i)] = kps
	}
	return m
}

// Total returns the number of keypoints over all groups.
func (g *Grouped) Total() int { return g.total }

// Failures returns the simulations that failed, in order.
func (g *Grouped) Failures() []*SimulationError { return g.failures }

// Keypoints returns all keypoints, order-major, without provenance.
func (g *Grouped) Keypoints() []keypoint.Keypoint {
	out := make([]keypoint.Keypoint, 0, g.total)
	for _, kps := range g.groups {
		out = append(out, kps...)
	}
	return out
}

// Flatten returns one tagged keypoint per (simulation, keypoint) pair,
// order-major and in detector order within a simulation.
func Flatten(g *Grouped) []keypoint.SimulationKeypoint {
	out := make([]keypoint.SimulationKeypoint, 0, g.total)
	for i, kps := range g.groups {
		p := g.order.At(i)
		for _, kp := range kps {
			out = append(out, keypoint.SimulationKeypoint{Keypoint: kp, Params: p, Index: i})
		}
	}
	return out
}
