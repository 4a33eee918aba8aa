//go:build !purego

package asift

import (
	"asift/internal/sift"
	"asift/internal/warp"

	"gocv.io/x/gocv"
)

// NewGrayEngine returns an engine running the OpenCV SIFT detector on the
// luminance of each simulated view. With no options sift.DefaultOptions is
// used. cfg.HighResolution turns on sift.Options.DoubleInitialImage.
func NewGrayEngine(cfg Config, opts ...sift.Options) (*Engine[gocv.Mat], error) {
	o, err := detectorOptions(cfg, opts)
	if err != nil {
		return nil, err
	}
	d, err := sift.NewDetector(o)
	if err != nil {
		return nil, &ConfigError{Field: "detector options", Value: o, Reason: err.Error()}
	}
	return New[gocv.Mat](d, warp.NewMatWarper(), cfg)
}

// NewColourEngine is NewGrayEngine with per-channel descriptors.
func NewColourEngine(cfg Config, opts ...sift.Options) (*Engine[gocv.Mat], error) {
	o, err := detectorOptions(cfg, opts)
	if err != nil {
		return nil, err
	}
	d, err := sift.NewColourDetector(o)
	if err != nil {
		return nil, &ConfigError{Field: "detector options", Value: o, Reason: err.Error()}
	}
	return New[gocv.Mat](d, warp.NewMatWarper(), cfg)
}
