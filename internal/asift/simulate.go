package asift

import (
	"fmt"

	"asift/internal/affine"
	"asift/internal/keypoint"
	"asift/pkg/geometry"
)

// Simulator runs one simulation: warp, detect, and map the keypoints back to
// the original frame.
type Simulator[I any] struct {
	detector Detector[I]
	warper   Warper[I]
}

// NewSimulator pairs a detector with a warper.
func NewSimulator[I any](detector Detector[I], warper Warper[I]) (*Simulator[I], error) {
	if detector == nil {
		return nil, &ConfigError{Field: "detector", Value: nil, Reason: "is required"}
	}
	if warper == nil {
		return nil, &ConfigError{Field: "warper", Value: nil, Reason: "is required"}
	}
	return &Simulator[I]{detector: detector, warper: warper}, nil
}

// Detect runs simulation p on img. Keypoints are returned in img's frame;
// those whose mapped location falls outside img are dropped.
func (s *Simulator[I]) Detect(img I, p affine.Params) ([]keypoint.Keypoint, error) {
	return s.run(img, p, -1)
}

func (s *Simulator[I]) run(img I, p affine.Params, index int) ([]keypoint.Keypoint, error) {
	sim, inverse, err := s.warper.Warp(img, p)
	defer release(sim)
	if err != nil {
		return nil, &SimulationError{Params: p, Index: index, Stage: StageWarp, Err: err}
	}

	found, err := s.detector.Detect(sim)
	if err != nil {
		return nil, &SimulationError{Params: p, Index: index, Stage: StageDetect, Err: err}
	}

	size := s.warper.Size(img)
	bounds := geometry.Rect{Width: float64(size.X), Height: float64(size.Y)}

	kps := make([]keypoint.Keypoint, 0, len(found))
	for _, kp := range found {
		mapped := keypoint.Transform(kp, inverse)
		if !bounds.Contains(mapped.Location()) {
			continue
		}
		kps = append(kps, mapped)
	}
	return kps, nil
}

// release closes a simulated image whose value or pointer has a Close
// method. Value types such as gocv.Mat close through a pointer receiver.
func release[I any](sim I) {
	if c, ok := any(sim).(closer); ok {
		c.Close()
		return
	}
	if c, ok := any(&sim).(closer); ok {
		c.Close()
	}
}

// String describes the simulator for logs.
func (s *Simulator[I]) String() string {
	return fmt.Sprintf("%T/%T", s.warper, s.detector)
}
