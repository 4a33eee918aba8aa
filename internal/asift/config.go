package asift

import (
	"runtime"

	"asift/internal/sift"

	"github.com/sirupsen/logrus"
)

// DefaultTilts is the tilt count of DefaultConfig.
const DefaultTilts = 5

// Config holds engine settings. Start from DefaultConfig and adjust with the
// With* methods; each returns a modified copy.
type Config struct {
	// HighResolution selects the higher-fidelity detector configuration
	// (the detector works on an upsampled copy of each simulated image).
	HighResolution bool

	// Tilts is the number of tilt levels swept; must be positive.
	Tilts int

	// Workers bounds concurrent simulations. 0 uses runtime.NumCPU(), 1 runs
	// the sweep sequentially.
	Workers int

	// Logger receives per-run diagnostics. nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultConfig returns the default configuration: five tilt levels, standard
// resolution, one worker per CPU.
func DefaultConfig() Config {
	return Config{Tilts: DefaultTilts}
}

// WithHighResolution sets the resolution mode.
func (c Config) WithHighResolution(on bool) Config {
	c.HighResolution = on
	return c
}

// WithTilts sets the tilt count.
func (c Config) WithTilts(n int) Config {
	c.Tilts = n
	return c
}

// WithWorkers sets the worker bound.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithLogger sets the logger.
func (c Config) WithLogger(l logrus.FieldLogger) Config {
	c.Logger = l
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Tilts <= 0 {
		return &ConfigError{Field: "tilts", Value: c.Tilts, Reason: "must be positive"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) workersFor(simulations int) int {
	n := c.Workers
	if n == 0 {
		n = runtime.NumCPU()
	}
	if n > simulations {
		n = simulations
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// detectorOptions resolves the base detector options for cfg. At most one
// set may be given; HighResolution forces DoubleInitialImage on.
func detectorOptions(cfg Config, opts []sift.Options) (sift.Options, error) {
	if err := cfg.Validate(); err != nil {
		return sift.Options{}, err
	}
	o := sift.DefaultOptions()
	switch len(opts) {
	case 0:
	case 1:
		o = opts[0]
	default:
		return sift.Options{}, &ConfigError{Field: "detector options", Value: len(opts), Reason: "at most one set allowed"}
	}
	if cfg.HighResolution {
		o = o.WithDoubleInitialImage(true)
	}
	if err := o.Validate(); err != nil {
		return sift.Options{}, &ConfigError{Field: "detector options", Value: o, Reason: err.Error()}
	}
	return o, nil
}
