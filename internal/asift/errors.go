package asift

import (
	"errors"
	"fmt"
	"strings"

	"asift/internal/affine"
)

var (
	// ErrInvalidConfig matches every *ConfigError.
	ErrInvalidConfig = errors.New("asift: invalid configuration")

	// ErrAllSimulationsFailed matches an *AggregateError.
	ErrAllSimulationsFailed = errors.New("asift: every simulation failed")
)

// ConfigError reports a configuration value rejected before any simulation runs.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("asift: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Stage names the step of a simulation that failed.
type Stage string

const (
	StageWarp   Stage = "warp"
	StageDetect Stage = "detect"
)

// SimulationError is a failure isolated to one simulation. Inside a sweep it
// is recorded and the simulation's group is left empty.
type SimulationError struct {
	Params affine.Params
	// Index is the position in the sweep order, -1 for a single on-demand simulation.
	Index int
	Stage Stage
	Err   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation %d (%s): %s failed: %v", e.Index, e.Params, e.Stage, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }

// AggregateError is returned when no simulation of a sweep succeeded.
type AggregateError struct {
	Failures []*SimulationError
}

func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "asift: all %d simulations failed", len(e.Failures))
	for i, f := range e.Failures {
		if i == 3 {
			fmt.Fprintf(&sb, "; and %d more", len(e.Failures)-i)
			break
		}
		sb.WriteString("; ")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

func (e *AggregateError) Is(target error) bool {
	return target == ErrAllSimulationsFailed
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
