package asift

import (
	"context"
	"errors"
	"sync"
	"time"

	"asift/internal/affine"
	"asift/internal/keypoint"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine sweeps a detector over the simulated views of an image.
// An Engine is safe for concurrent use if its detector and warper are.
type Engine[I any] struct {
	sim *Simulator[I]
	cfg Config
}

// Result is the outcome of one sweep.
type Result struct {
	RunID   string
	Order   *affine.Order
	Grouped *Grouped
	// Failures are simulations that were skipped; their groups are empty.
	Failures []*SimulationError
	Elapsed  time.Duration
}

// Keypoints returns every keypoint without provenance.
func (r *Result) Keypoints() []keypoint.Keypoint { return r.Grouped.Keypoints() }

// SimulationKeypoints returns every keypoint tagged with its simulation.
func (r *Result) SimulationKeypoints() []keypoint.SimulationKeypoint { return Flatten(r.Grouped) }

// New creates an engine. The configuration is validated immediately.
func New[I any](detector Detector[I], warper Warper[I], cfg Config) (*Engine[I], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim, err := NewSimulator(detector, warper)
	if err != nil {
		return nil, err
	}
	return &Engine[I]{sim: sim, cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine[I]) Config() Config { return e.cfg }

// Process runs the full sweep. Failed simulations are skipped and reported in
// Result.Failures; if all of them fail the error is an *AggregateError. On
// cancellation no further simulations start and the context error is
// returned once the running ones finish.
func (e *Engine[I]) Process(ctx context.Context, img I) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := affine.Generate(e.cfg.Tilts)
	if err != nil {
		return nil, &ConfigError{Field: "tilts", Value: e.cfg.Tilts, Reason: err.Error()}
	}

	start := time.Now()
	runID := uuid.NewString()
	workers := e.cfg.workersFor(order.Len())
	log := e.cfg.logger().WithFields(logrus.Fields{
		"run":         runID,
		"tilts":       order.Tilts(),
		"simulations": order.Len(),
	})
	log.WithField("workers", workers).Debug("starting sweep")

	slots := make([]Slot, order.Len())
	started := e.sweep(ctx, img, order, slots, workers)
	if started < order.Len() {
		log.WithField("started", started).Debug("sweep cancelled")
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}

	grouped := Collect(order, slots)
	for _, f := range grouped.Failures() {
		log.WithFields(logrus.Fields{
			"params": f.Params.String(),
			"index":  f.Index,
			"stage":  f.Stage,
		}).WithError(f.Err).Warn("simulation skipped")
	}

	res := &Result{
		RunID:    runID,
		Order:    order,
		Grouped:  grouped,
		Failures: grouped.Failures(),
		Elapsed:  time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"keypoints": grouped.Total(),
		"failures":  len(res.Failures),
		"elapsed":   res.Elapsed,
	}).Debug("sweep finished")

	if len(res.Failures) == order.Len() {
		return nil, &AggregateError{Failures: res.Failures}
	}
	return res, nil
}

// sweep runs every simulation of order into slots and returns how many were
// started. It stops starting simulations once ctx is done.
func (e *Engine[I]) sweep(ctx context.Context, img I, order *affine.Order, slots []Slot, workers int) int {
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	started := 0
	for i := 0; i < order.Len(); i++ {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}: // Acquire semaphore
		}
		if ctx.Err() != nil {
			break
		}
		started++

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore

			p := order.At(idx)
			kps, err := e.sim.run(img, p, idx)
			if err != nil {
				var simErr *SimulationError
				if !errors.As(err, &simErr) {
					simErr = &SimulationError{Params: p, Index: idx, Stage: StageDetect, Err: err}
				}
				slots[idx] = Slot{Err: simErr}
				return
			}
			slots[idx] = Slot{Keypoints: kps}
		}(i)
	}
	wg.Wait()
	return started
}

// FindFeatures runs the sweep and returns every keypoint without provenance.
func (e *Engine[I]) FindFeatures(ctx context.Context, img I) ([]keypoint.Keypoint, error) {
	res, err := e.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.Keypoints(), nil
}

// FindKeypointsGrouped runs the sweep and returns the per-simulation view.
func (e *Engine[I]) FindKeypointsGrouped(ctx context.Context, img I) (*Grouped, error) {
	res, err := e.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.Grouped, nil
}

// FindSimulationKeypoints runs the sweep and returns every keypoint tagged
// with its simulation and that simulation's index in the order.
func (e *Engine[I]) FindSimulationKeypoints(ctx context.Context, img I) ([]keypoint.SimulationKeypoint, error) {
	res, err := e.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.SimulationKeypoints(), nil
}

// FindKeypoints runs the single simulation p, which need not belong to the
// configured order. A failure is returned as a *SimulationError.
func (e *Engine[I]) FindKeypoints(ctx context.Context, img I, p affine.Params) ([]keypoint.Keypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := affine.NewParams(p.Tilt, p.Theta); err != nil {
		return nil, &SimulationError{Params: p, Index: -1, Stage: StageWarp, Err: err}
	}
	return e.sim.Detect(img, p)
}
