package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"asift/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSimulationsCommand(t *testing.T) {
	out := execute(t, "simulations", "--tilts", "2", "--log-level", "error")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 7)
	assert.Contains(t, lines[0], "THETA")
	assert.Contains(t, lines[1], "1.0000")
	assert.Contains(t, lines[5], "135.00")
	assert.Equal(t, "5 simulations", lines[len(lines)-1])
}

func TestSimulationsCommand_Sized(t *testing.T) {
	out := execute(t, "simulations", "--tilts", "3", "--width", "100", "--height", "80", "--log-level", "error")

	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "100x80")
	assert.Contains(t, out, "100x40")
	assert.Contains(t, out, "10 simulations")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.True(t, strings.HasPrefix(out, "asift "))
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")

	sims := []report.Simulation{
		{Index: 0, Tilt: 1, Keypoints: 10},
		{Index: 1, Tilt: 1.414, Theta: 0, Keypoints: 15},
		{Index: 2, Tilt: 1.414, Theta: 45, Stage: "warp", Error: "boom"},
	}
	rep := &report.File{
		Version:     report.CurrentVersion,
		RunID:       "run-1",
		Width:       40,
		Height:      30,
		Simulations: sims,
		Summary:     report.Summarize(sims),
	}
	rep.SetImage(path, filepath.Join(dir, "in.png"))
	rep.SetOutput(path, "keys", filepath.Join(dir, "out", "in.keys"))
	require.NoError(t, rep.Save(path))

	out := execute(t, "report", path)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, filepath.Join(dir, "in.png")+" (40x30)")
	assert.Contains(t, out, "3 (1 failed)")
	assert.Contains(t, out, "25 (gain 2.50)")
	assert.Contains(t, out, filepath.Join(dir, "out", "in.keys"))
}

func TestReportCommand_Missing(t *testing.T) {
	rootCmd.SetArgs([]string{"report", filepath.Join(t.TempDir(), "none.json")})
	assert.Error(t, rootCmd.Execute())
}
