package parametric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/pkg/models"
)

func TestResponse_PeakGainAtCenterFrequency(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	filters := []models.Filter{{Fc: 1000, Q: 1.41, Gain: 6.0}}

	eq := Response(freqs, filters)

	at := func(f float64) float64 {
		best, bestDiff := 0, math.Inf(1)
		for i, v := range freqs {
			if d := math.Abs(v - f); d < bestDiff {
				best, bestDiff = i, d
			}
		}
		return eq[best]
	}

	assert.InDelta(t, 6.0, at(1000), 0.1, "full gain at center frequency")
	assert.InDelta(t, 0.0, at(20), 0.2, "negligible gain far below center")
	assert.Less(t, at(4000), 3.0, "gain falls off away from center")
}

func TestResponse_FiltersSum(t *testing.T) {
	freqs := []float64{100, 1000, 10000}
	a := []models.Filter{{Fc: 1000, Q: 1, Gain: 4}}
	b := []models.Filter{{Fc: 100, Q: 1, Gain: -2}}
	both := append(append([]models.Filter(nil), a...), b...)

	ra := Response(freqs, a)
	rb := Response(freqs, b)
	rboth := Response(freqs, both)

	for i := range freqs {
		assert.InDelta(t, ra[i]+rb[i], rboth[i], 1e-9)
	}
}

func TestFit_RecoversSinglePeak(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	truth := []models.Filter{{Fc: 1000, Q: 1.41, Gain: 5.0}}
	target := Response(freqs, truth)

	result, err := Fit(freqs, target, 10)
	require.NoError(t, err)

	require.NotEmpty(t, result.Filters)
	assert.Less(t, result.RMSE, 0.5, "single peaking target should be fit closely")
}

func TestFit_RespectsMaxFilters(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	truth := []models.Filter{
		{Fc: 60, Q: 1, Gain: 4},
		{Fc: 300, Q: 1.5, Gain: -3},
		{Fc: 1500, Q: 2, Gain: 3},
		{Fc: 5000, Q: 1, Gain: -4},
		{Fc: 10000, Q: 1, Gain: 2},
	}
	target := Response(freqs, truth)

	result, err := Fit(freqs, target, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Filters), 3)
}

func TestFit_FlatTargetNeedsNoFilters(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	target := make([]float64, len(freqs))

	result, err := Fit(freqs, target, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Filters)
}

func TestFit_FiltersSortedByFrequency(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	truth := []models.Filter{
		{Fc: 100, Q: 1, Gain: 4},
		{Fc: 3000, Q: 1, Gain: -4},
	}
	target := Response(freqs, truth)

	result, err := Fit(freqs, target, 10)
	require.NoError(t, err)
	for i := 1; i < len(result.Filters); i++ {
		assert.Greater(t, result.Filters[i].Fc, result.Filters[i-1].Fc)
	}
}

func TestFit_RejectsMismatchedInput(t *testing.T) {
	_, err := Fit([]float64{20, 100}, []float64{0}, 10)
	assert.Error(t, err)
}

func TestLocalExtrema(t *testing.T) {
	data := []float64{0, 1, 2, 1, 0, -1, -2, -1, 0}

	assert.Equal(t, []int{2}, localMaxima(data))
	assert.Equal(t, []int{6}, localMinima(data))
}
