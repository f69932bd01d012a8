package eqapo

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/pkg/models"
)

func flatEqualized(gain float64) *response.FrequencyResponse {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	raw := make([]float64, len(freqs))
	fr := response.New("test", freqs, raw)
	fr.Equalization = make([]float64, len(freqs))
	for i := range fr.Equalization {
		fr.Equalization[i] = gain
	}
	return fr
}

func TestGraphicEQ_Format(t *testing.T) {
	fr := flatEqualized(3.0)

	s, err := GraphicEQ(fr)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(s, "GraphicEQ: 10 -84; "))

	bands := strings.Split(strings.TrimPrefix(s, "GraphicEQ: "), "; ")
	require.Greater(t, len(bands), 50)

	prev := -1.0
	for _, band := range bands {
		fields := strings.Fields(band)
		require.Len(t, fields, 2)

		f, err := strconv.ParseFloat(fields[0], 64)
		require.NoError(t, err)
		assert.Greater(t, f, prev, "frequencies must be strictly increasing")
		prev = f

		_, err = strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
	}

	// Flat 3 dB equalization stays 3 dB at every band.
	for _, band := range bands[1:] {
		assert.True(t, strings.HasSuffix(band, " 3.0"), "band %q", band)
	}
}

func TestGraphicEQ_RequiresEqualization(t *testing.T) {
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.DefaultStep)
	fr := response.New("test", freqs, make([]float64, len(freqs)))

	_, err := GraphicEQ(fr)
	assert.Error(t, err)
}

func TestGraphicEQ_CoarseResampling(t *testing.T) {
	fr := flatEqualized(0)

	s, err := GraphicEQ(fr)
	require.NoError(t, err)

	bands := strings.Split(strings.TrimPrefix(s, "GraphicEQ: "), "; ")
	// Step 1.07 over 20..20000 Hz gives on the order of a hundred bands,
	// far fewer than the dense processing vector.
	assert.Less(t, len(bands), 150)
	assert.Greater(t, len(bands), 90)
}

func TestWriteGraphicEQ(t *testing.T) {
	fr := flatEqualized(1.0)
	path := filepath.Join(t.TempDir(), "test GraphicEQ.txt")

	s, err := WriteGraphicEQ(path, fr)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, string(data))
}

func TestParametricEQ_Format(t *testing.T) {
	filters := []models.Filter{
		{Fc: 105, Q: 0.7, Gain: 3.2},
		{Fc: 2400, Q: 1.41, Gain: -4.05},
	}

	s := ParametricEQ(filters)
	lines := strings.Split(s, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Filter 1: ON PK Fc 105 Hz Gain 3.2 dB Q 0.70", lines[0])
	assert.Equal(t, "Filter 2: ON PK Fc 2400 Hz Gain -4.0 dB Q 1.41", lines[1])
}

func TestParametricEQ_Empty(t *testing.T) {
	assert.Equal(t, "", ParametricEQ(nil))
}

func TestGraphicPreamp(t *testing.T) {
	// Max positive gain 6.13 dB: negate, floor to 0.1 dB, 0.5 dB headroom.
	preamp := GraphicPreamp([]float64{-2.0, 6.13, 1.5})
	assert.InDelta(t, -6.7, preamp, 1e-9)

	// All-cut equalization still gets the headroom.
	preamp = GraphicPreamp([]float64{-3.0, -1.0})
	assert.InDelta(t, -0.5, preamp, 1e-9)
}

func TestParametricPreamp(t *testing.T) {
	// Max 4.2 dB: -4.2 - 0.5 = -4.7, floored at 0.5 dB resolution.
	preamp := ParametricPreamp([]float64{0.0, 4.2, -1.0})
	assert.InDelta(t, -5.0, preamp, 1e-9)

	preamp = ParametricPreamp([]float64{-2.0, -0.5})
	assert.InDelta(t, -0.5, preamp, 1e-9)

	assert.False(t, math.IsInf(ParametricPreamp([]float64{0}), 0))
}
