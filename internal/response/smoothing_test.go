package response

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavgol_PreservesQuadratic(t *testing.T) {
	data := make([]float64, 51)
	for i := range data {
		x := float64(i)
		data[i] = 0.5 + 0.25*x + 0.01*x*x
	}

	smoothed := savgol(data, 11)

	require.Len(t, smoothed, len(data))
	for i := range data {
		assert.InDelta(t, data[i], smoothed[i], 1e-9, "quadratic input must pass through unchanged at index %d", i)
	}
}

func TestSavgol_ReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]float64, 200)
	for i := range data {
		data[i] = math.Sin(float64(i)/30) + rng.NormFloat64()*0.5
	}

	smoothed := savgol(data, 21)

	variance := func(xs []float64) float64 {
		var mean float64
		for _, x := range xs {
			mean += x
		}
		mean /= float64(len(xs))
		var v float64
		for _, x := range xs {
			v += (x - mean) * (x - mean)
		}
		return v / float64(len(xs))
	}

	// Compare deviation from the clean signal.
	devRaw := make([]float64, len(data))
	devSmooth := make([]float64, len(data))
	for i := range data {
		clean := math.Sin(float64(i) / 30)
		devRaw[i] = data[i] - clean
		devSmooth[i] = smoothed[i] - clean
	}
	assert.Less(t, variance(devSmooth), variance(devRaw))
}

func TestSavgol_WindowLargerThanData(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	smoothed := savgol(data, 99)
	require.Len(t, smoothed, len(data))
	for i := range data {
		assert.False(t, math.IsNaN(smoothed[i]))
	}
}

func TestQuadFit_ExactQuadratic(t *testing.T) {
	data := make([]float64, 9)
	for i := range data {
		x := float64(i)
		data[i] = 2 - 3*x + 0.5*x*x
	}
	b0, b1, b2 := quadFit(data)
	assert.InDelta(t, 2.0, b0, 1e-9)
	assert.InDelta(t, -3.0, b1, 1e-9)
	assert.InDelta(t, 0.5, b2, 1e-9)
}

func TestWindowSize_IsOddAndScalesWithOctaves(t *testing.T) {
	fr := New("test", nil, nil)

	small := fr.windowSize(1.0 / 12.0)
	large := fr.windowSize(1.0 / 3.0)

	assert.Equal(t, 1, small%2)
	assert.Equal(t, 1, large%2)
	assert.Greater(t, large, small)
}

func TestSmoothen_FlattensNarrowSpike(t *testing.T) {
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))
	spike := len(fr.Raw) / 2
	fr.Raw[spike] = 10.0

	require.NoError(t, fr.Smoothen(DefaultSmoothenOptions()))

	require.Len(t, fr.Smoothed, len(fr.Raw))
	assert.Less(t, fr.Smoothed[spike], 5.0, "narrow spike should be attenuated")
}

func TestSmoothen_SmoothsErrorWhenPresent(t *testing.T) {
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))
	fr.Error = make([]float64, len(fr.Frequency))
	for i := range fr.Error {
		fr.Error[i] = math.Sin(float64(i) / 5)
	}

	require.NoError(t, fr.Smoothen(DefaultSmoothenOptions()))
	assert.Len(t, fr.ErrorSmoothed, len(fr.Error))
}

func TestSmoothen_RejectsInvertedTrebleBounds(t *testing.T) {
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))

	opts := DefaultSmoothenOptions()
	opts.TrebleFLower = 8000
	opts.TrebleFUpper = 6000
	assert.Error(t, fr.Smoothen(opts))
}

func TestSmoothen_RejectsNaN(t *testing.T) {
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))
	fr.Raw[3] = math.NaN()

	assert.Error(t, fr.Smoothen(DefaultSmoothenOptions()))
}
