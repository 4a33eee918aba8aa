// Package sift wraps the OpenCV SIFT detector as the base detector of the
// affine sweep, in gray and colour variants.
package sift

import (
	"fmt"
	"math"
	"sort"
)

// DescriptorLength is the length of a single-channel descriptor.
const DescriptorLength = 128

// Options configures the base detector.
type Options struct {
	// DoubleInitialImage upsamples each image by 2 before detection and maps
	// the keypoints back. Finds more small-scale features at higher cost.
	DoubleInitialImage bool `json:"double_initial_image"`

	// MaxFeatures keeps only the strongest responses; 0 keeps all.
	MaxFeatures int `json:"max_features,omitempty"`

	// MinResponse drops keypoints with a weaker detector response.
	MinResponse float64 `json:"min_response,omitempty"`
}

// DefaultOptions returns options that keep every keypoint at native resolution.
func DefaultOptions() Options {
	return Options{}
}

// WithDoubleInitialImage sets the upsampling mode.
func (o Options) WithDoubleInitialImage(on bool) Options {
	o.DoubleInitialImage = on
	return o
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.MaxFeatures < 0 {
		return fmt.Errorf("max features %d must not be negative", o.MaxFeatures)
	}
	if math.IsNaN(o.MinResponse) || math.IsInf(o.MinResponse, 0) || o.MinResponse < 0 {
		return fmt.Errorf("min response %v must be a finite value >= 0", o.MinResponse)
	}
	return nil
}

// Select returns the indices of the responses kept by MinResponse and
// MaxFeatures, in their original order.
func (o Options) Select(responses []float64) []int {
	idx := make([]int, 0, len(responses))
	for i, r := range responses {
		if r >= o.MinResponse {
			idx = append(idx, i)
		}
	}
	if o.MaxFeatures == 0 || len(idx) <= o.MaxFeatures {
		return idx
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return responses[idx[a]] > responses[idx[b]]
	})
	idx = idx[:o.MaxFeatures]
	sort.Ints(idx)
	return idx
}
