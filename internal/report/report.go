// Package report provides the JSON run report and its persistence.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"asift/internal/asift"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CurrentVersion is the report format version written by Save.
const CurrentVersion = 1

// File represents a run report (.json).
type File struct {
	Version  int       `json:"version"`
	RunID    string    `json:"run_id"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Image path (relative to report file)
	ImagePath string `json:"image,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`

	// Engine settings
	Tilts          int  `json:"tilts"`
	HighResolution bool `json:"high_resolution"`
	Colour         bool `json:"colour"`

	Simulations []Simulation `json:"simulations"`
	Summary     Summary      `json:"summary"`
	ElapsedMS   int64        `json:"elapsed_ms"`

	// Output paths (relative to report file)
	Outputs map[string]string `json:"outputs,omitempty"`
}

// Simulation is the outcome of one simulation.
type Simulation struct {
	Index     int     `json:"index"`
	Tilt      float64 `json:"tilt"`
	Theta     float64 `json:"theta"`
	Keypoints int     `json:"keypoints"`
	Stage     string  `json:"failed_stage,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Summary holds statistics over the per-simulation keypoint counts.
type Summary struct {
	Total    int     `json:"total"`
	Failures int     `json:"failures"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	// Identity is the keypoint count of the untilted simulation; Gain is
	// Total / Identity (0 when Identity is 0).
	Identity int     `json:"identity"`
	Gain     float64 `json:"gain"`
}

// New creates a report from a sweep result.
func New(res *asift.Result, cfg asift.Config, width, height int) *File {
	now := time.Now()
	f := &File{
		Version:        CurrentVersion,
		RunID:          res.RunID,
		Created:        now,
		Modified:       now,
		Width:          width,
		Height:         height,
		Tilts:          cfg.Tilts,
		HighResolution: cfg.HighResolution,
		ElapsedMS:      res.Elapsed.Milliseconds(),
	}

	failed := make(map[int]*asift.SimulationError, len(res.Failures))
	for _, e := range res.Failures {
		failed[e.Index] = e
	}
	for i := 0; i < res.Grouped.Len(); i++ {
		p, kps := res.Grouped.At(i)
		s := Simulation{Index: i, Tilt: p.Tilt, Theta: p.Theta, Keypoints: len(kps)}
		if e, ok := failed[i]; ok {
			s.Stage = string(e.Stage)
			s.Error = e.Err.Error()
		}
		f.Simulations = append(f.Simulations, s)
	}
	f.Summary = Summarize(f.Simulations)
	return f
}

// Summarize computes count statistics over simulations.
func Summarize(sims []Simulation) Summary {
	var s Summary
	if len(sims) == 0 {
		return s
	}
	counts := make([]float64, len(sims))
	for i, sim := range sims {
		counts[i] = float64(sim.Keypoints)
		s.Total += sim.Keypoints
		if sim.Error != "" {
			s.Failures++
		}
		if sim.Index == 0 {
			s.Identity = sim.Keypoints
		}
	}
	s.Mean, s.StdDev = stat.MeanStdDev(counts, nil)
	if len(counts) < 2 {
		s.StdDev = 0
	}
	s.Min = int(floats.Min(counts))
	s.Max = int(floats.Max(counts))
	if s.Identity > 0 {
		s.Gain = float64(s.Total) / float64(s.Identity)
	}
	return s
}

// Load loads a report from a file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// Save saves the report to a file.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to the report).
func (f *File) SetImage(reportPath, imagePath string) {
	f.ImagePath = relative(reportPath, imagePath)
}

// GetImagePath returns the absolute path to the image.
func (f *File) GetImagePath(reportPath string) string {
	return absolute(reportPath, f.ImagePath)
}

// SetOutput records an output file under a name such as "csv" or "overlay".
func (f *File) SetOutput(reportPath, name, outputPath string) {
	if f.Outputs == nil {
		f.Outputs = make(map[string]string)
	}
	f.Outputs[name] = relative(reportPath, outputPath)
}

// GetOutputPath returns the absolute path of a recorded output.
func (f *File) GetOutputPath(reportPath, name string) string {
	return absolute(reportPath, f.Outputs[name])
}

func relative(reportPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(reportPath), path)
	if err != nil {
		return path
	}
	return rel
}

func absolute(reportPath, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(reportPath), path)
}
