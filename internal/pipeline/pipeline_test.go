package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/eqcraft/internal/response"
)

// measurementCSV renders a frequency/raw CSV with a broad dip around 3 kHz.
func measurementCSV(t *testing.T, dir, name string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("frequency,raw\n")
	for f := 20.0; f <= 20000; f *= 1.1 {
		gain := -4.0 * math.Exp(-math.Pow(math.Log10(f)-math.Log10(3000), 2)/0.02)
		fmt.Fprintf(&b, "%.2f,%.2f\n", f, gain)
	}
	b.WriteString("20000.00,0.00\n")

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func flatCSV(t *testing.T, dir, name string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("frequency,raw\n")
	for f := 20.0; f <= 20000; f *= 1.1 {
		fmt.Fprintf(&b, "%.2f,0.00\n", f)
	}
	b.WriteString("20000.00,0.00\n")

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestProcess_FullChain(t *testing.T) {
	dir := t.TempDir()
	path := measurementCSV(t, dir, "Test Model.csv")

	fr, err := response.ReadCSV(path)
	require.NoError(t, err)

	compensation, err := LoadReference(flatCSV(t, dir, "compensation.csv"))
	require.NoError(t, err)

	opts := DefaultOptions()
	result, err := Process(fr, nil, compensation, opts)
	require.NoError(t, err)

	require.NotEmpty(t, fr.Equalization)
	assert.True(t, strings.HasPrefix(result.GraphicEQ, "GraphicEQ: 10 -84; "))
	assert.LessOrEqual(t, result.GraphicPreamp, -0.5)

	// The dip gets boosted within the max gain bound.
	maxEQ := math.Inf(-1)
	for _, v := range fr.Equalization {
		maxEQ = math.Max(maxEQ, v)
	}
	assert.Greater(t, maxEQ, 1.0)
	assert.LessOrEqual(t, maxEQ, response.DefaultMaxGain+1.0)
}

func TestProcess_ParametricFit(t *testing.T) {
	dir := t.TempDir()
	path := measurementCSV(t, dir, "Test Model.csv")

	fr, err := response.ReadCSV(path)
	require.NoError(t, err)

	compensation, err := LoadReference(flatCSV(t, dir, "compensation.csv"))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ParametricEQ = true
	opts.MaxFilters = 5

	result, err := Process(fr, nil, compensation, opts)
	require.NoError(t, err)

	require.NotEmpty(t, result.Filters)
	assert.LessOrEqual(t, len(result.Filters), 5)
	assert.NotEmpty(t, fr.ParametricEQ)
	assert.Contains(t, result.ParametricEQ, "Filter 1: ON PK Fc")
	assert.LessOrEqual(t, result.ParametricPreamp, -0.5)
}

func TestProcess_ParametricRequiresEqualize(t *testing.T) {
	opts := DefaultOptions()
	opts.Equalize = false
	opts.ParametricEQ = true

	_, err := Process(nil, nil, nil, opts)
	assert.Error(t, err)
}

func TestProcess_WithoutEqualize(t *testing.T) {
	dir := t.TempDir()
	fr, err := response.ReadCSV(measurementCSV(t, dir, "Test Model.csv"))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Equalize = false

	result, err := Process(fr, nil, nil, opts)
	require.NoError(t, err)
	assert.Empty(t, result.GraphicEQ)
	assert.Empty(t, fr.Equalization)
	assert.NotEmpty(t, fr.Smoothed)
}

func TestRun_WritesOutputs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	refDir := t.TempDir()

	measurementCSV(t, inputDir, filepath.Join("oratory1990", "Test Model.csv"))
	compensation := flatCSV(t, refDir, "compensation.csv")

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir
	opts.Compensation = compensation

	require.NoError(t, Run(context.Background(), opts))

	modelDir := filepath.Join(outputDir, "oratory1990")
	assert.FileExists(t, filepath.Join(modelDir, "Test Model.csv"))
	assert.FileExists(t, filepath.Join(modelDir, "Test Model GraphicEQ.txt"))
	assert.NoFileExists(t, filepath.Join(modelDir, "Test Model ParametricEQ.txt"))

	readme, err := os.ReadFile(filepath.Join(modelDir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "# Test Model")
	assert.Contains(t, string(readme), "### EqualizerAPO")

	runReadme, err := os.ReadFile(filepath.Join(outputDir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(runReadme), "# Run ")
	assert.Contains(t, string(runReadme), "* `--bass_boost=0`")
	assert.Contains(t, string(runReadme), "* `--max_gain=6`")
	assert.Contains(t, string(runReadme), fmt.Sprintf("* `--compensation=%q`", compensation))
}

func TestRun_AppendsRunParamsToModelReadme(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	refDir := t.TempDir()

	measurementCSV(t, inputDir, "Test Model.csv")

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir
	opts.Compensation = flatCSV(t, refDir, "compensation.csv")

	require.NoError(t, Run(context.Background(), opts))

	readme, err := os.ReadFile(filepath.Join(outputDir, "README.md"))
	require.NoError(t, err)
	s := string(readme)
	assert.Contains(t, s, "# Test Model")
	assert.Contains(t, s, "# Run ")
	assert.Less(t, strings.Index(s, "# Test Model"), strings.Index(s, "# Run "),
		"run parameters are appended after the model readme")
}

func TestRun_NoCSVFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir

	require.NoError(t, Run(context.Background(), opts))
	assert.NoFileExists(t, filepath.Join(outputDir, "README.md"))
}

func TestRun_CancelledContext(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	measurementCSV(t, inputDir, "Test Model.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.InputDir = inputDir
	opts.OutputDir = outputDir

	assert.ErrorIs(t, Run(ctx, opts), context.Canceled)
}
