package asift

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"asift/internal/affine"
	"asift/internal/keypoint"
	"asift/pkg/geometry"
)

var errStub = errors.New("stub failure")

// scene is a synthetic image: a set of feature locations in a W x H frame.
// Simulated views are scenes too; they remember their source and the
// forward transform, and count closes.
type scene struct {
	W, H     int
	features []geometry.Point2D

	source  *scene
	params  affine.Params
	forward geometry.AffineTransform
	closed  *atomic.Int32
}

func newScene() *scene {
	return &scene{
		W: 160, H: 120,
		features: []geometry.Point2D{
			{X: 10.25, Y: 20.5},
			{X: 80, Y: 60},
			{X: 150.75, Y: 5},
			{X: 0.5, Y: 119.25},
		},
	}
}

func (s *scene) Close() error {
	if s != nil && s.closed != nil {
		s.closed.Add(1)
	}
	return nil
}

// stubWarper simulates scenes analytically, failing for selected params.
type stubWarper struct {
	fail   map[affine.Params]bool
	calls  atomic.Int32
	closed atomic.Int32
}

func (w *stubWarper) Warp(img *scene, p affine.Params) (*scene, geometry.AffineTransform, error) {
	w.calls.Add(1)
	if w.fail[p] {
		return nil, geometry.AffineTransform{}, errStub
	}
	g, err := affine.Simulate(p, img.W, img.H)
	if err != nil {
		return nil, geometry.AffineTransform{}, err
	}
	return &scene{
		W: g.Size.X, H: g.Size.Y,
		features: img.features,
		source:   img,
		params:   p,
		forward:  g.Forward,
		closed:   &w.closed,
	}, g.Inverse, nil
}

func (w *stubWarper) Size(img *scene) image.Point {
	return image.Pt(img.W, img.H)
}

// stubDetector reports every scene feature at its simulated location plus
// one point that maps outside the original frame.
type stubDetector struct {
	fail  map[affine.Params]bool
	calls atomic.Int32
	// delay staggers completion so parallel runs finish out of order.
	delay bool
	// onDetect runs before detection.
	onDetect func()

	mu   sync.Mutex
	seen []affine.Params
}

func (d *stubDetector) Detect(v *scene) ([]keypoint.Keypoint, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.seen = append(d.seen, v.params)
	d.mu.Unlock()

	if d.onDetect != nil {
		d.onDetect()
	}
	if d.delay {
		time.Sleep(time.Duration(int(v.params.Theta)%7) * time.Millisecond)
	}
	if d.fail[v.params] {
		return nil, errStub
	}

	outside := geometry.Point2D{X: float64(v.source.W) + 10, Y: float64(v.source.H) + 10}
	var kps []keypoint.Keypoint
	for i, f := range append(append([]geometry.Point2D(nil), v.features...), outside) {
		loc := v.forward.Apply(f)
		kps = append(kps, keypoint.Keypoint{
			X: loc.X, Y: loc.Y,
			Scale:       1,
			Orientation: 0,
			Descriptor:  []byte{byte(i)},
		})
	}
	return kps, nil
}
