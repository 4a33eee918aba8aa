// Package config resolves the command-line run configuration from an optional
// JSON file and flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"asift/internal/asift"
	"asift/internal/sift"
)

// Output formats.
const (
	FormatKeys    = "keys"    // Lowe ASCII keypoint file
	FormatCSV     = "csv"     // tagged keypoints as CSV
	FormatOverlay = "overlay" // keypoints drawn over the image
	FormatReport  = "report"  // JSON run report
)

var knownFormats = []string{FormatKeys, FormatCSV, FormatOverlay, FormatReport}

var overlayExtensions = []string{"png", "jpg", "webp"}

// Config holds the run settings.
type Config struct {
	// Engine
	Tilts          int          `json:"tilts"`
	Workers        int          `json:"workers"`
	HighResolution bool         `json:"high_resolution"`
	Colour         bool         `json:"colour"`
	Detector       sift.Options `json:"detector"`

	// Outputs
	OutputDir      string   `json:"output_dir"`
	Formats        []string `json:"formats"`
	OverlayFormat  string   `json:"overlay_format"`
	OverlayMaxEdge int      `json:"overlay_max_edge"`

	// Logging
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`
}

// Flags holds command-line overrides. Zero values and nil pointers leave the
// file setting in place.
type Flags struct {
	Tilts          int
	Workers        int
	HighResolution *bool
	Colour         *bool
	OutputDir      string
	Formats        []string
	OverlayFormat  string
	LogLevel       string
	LogJSON        *bool
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies flag overrides and fills any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Tilts != 0 {
		c.Tilts = flags.Tilts
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.HighResolution != nil {
		c.HighResolution = *flags.HighResolution
	}
	if flags.Colour != nil {
		c.Colour = *flags.Colour
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if len(flags.Formats) > 0 {
		c.Formats = flags.Formats
	}
	if flags.OverlayFormat != "" {
		c.OverlayFormat = flags.OverlayFormat
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogJSON != nil {
		c.LogJSON = *flags.LogJSON
	}

	// Defaults
	if c.Tilts == 0 {
		c.Tilts = asift.DefaultTilts
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{FormatKeys}
	}
	for i, f := range c.Formats {
		c.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	c.OverlayFormat = strings.TrimPrefix(strings.ToLower(c.OverlayFormat), ".")
	if c.OverlayFormat == "" {
		c.OverlayFormat = "png"
	}
	if c.OverlayMaxEdge == 0 {
		c.OverlayMaxEdge = 2048
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks a resolved configuration.
func (c Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("config: detector: %w", err)
	}
	for _, f := range c.Formats {
		if !contains(knownFormats, f) {
			return fmt.Errorf("config: unknown format %q (want one of %s)", f, strings.Join(knownFormats, ", "))
		}
	}
	if !contains(overlayExtensions, c.OverlayFormat) {
		return fmt.Errorf("config: unknown overlay format %q (want one of %s)",
			c.OverlayFormat, strings.Join(overlayExtensions, ", "))
	}
	if c.OverlayMaxEdge < 0 {
		return fmt.Errorf("config: overlay max edge %d must not be negative", c.OverlayMaxEdge)
	}
	return nil
}

// Engine returns the engine configuration.
func (c Config) Engine() asift.Config {
	return asift.DefaultConfig().
		WithTilts(c.Tilts).
		WithWorkers(c.Workers).
		WithHighResolution(c.HighResolution)
}

// Wants reports whether output format f is requested.
func (c Config) Wants(f string) bool {
	return contains(c.Formats, f)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
