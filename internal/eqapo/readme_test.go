package eqapo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/eqcraft/pkg/models"
)

func TestReadme_GraphicOnly(t *testing.T) {
	s := Readme(ReadmeData{
		Model:        "Sennheiser HD 650",
		Equalization: []float64{1.0, 5.3, 2.0},
		GraphicEQ:    "GraphicEQ: 10 -84; 20 1.0; 20000 0.0",
	})

	assert.True(t, strings.HasPrefix(s, "# Sennheiser HD 650\n"))
	assert.Contains(t, s, "### EqualizerAPO")
	assert.Contains(t, s, "Preamp: -5.8dB")
	assert.Contains(t, s, "GraphicEQ: 10 -84; 20 1.0; 20000 0.0")
	assert.Contains(t, s, "### HeSuVi")
	assert.Contains(t, s, "**-58**")
	assert.NotContains(t, s, "### Peace")
	assert.NotContains(t, s, "### Parametric EQs")
}

func TestReadme_ParametricOnly(t *testing.T) {
	s := Readme(ReadmeData{
		Model:        "AKG K701",
		ParametricEQ: []float64{0.0, 3.1, -2.0},
		Filters: []models.Filter{
			{Fc: 105, Q: 0.70, Gain: 3.2},
			{Fc: 2400, Q: 1.41, Gain: -4.0},
		},
	})

	assert.NotContains(t, s, "### EqualizerAPO")
	assert.Contains(t, s, "### Peace")
	assert.Contains(t, s, "`AKG K701 ParametricEQ.txt`")
	assert.Contains(t, s, "### Parametric EQs")
	assert.Contains(t, s, "preamp of **-4.0dB**")

	// Filter parameters appear in the table.
	assert.Contains(t, s, "| Peaking")
	assert.Contains(t, s, "105 Hz")
	assert.Contains(t, s, "1.41")
	assert.Contains(t, s, "-4.0 dB")
}

func TestReadme_Empty(t *testing.T) {
	s := Readme(ReadmeData{Model: "Model X"})
	assert.Equal(t, "# Model X\n", s)
}

func TestMarkdownTable(t *testing.T) {
	s := markdownTable(
		[]string{"Type", "Fc", "Q", "Gain"},
		[][]string{
			{"Peaking", "105 Hz", "0.70", "3.2 dB"},
			{"Peaking", "2400 Hz", "1.41", "-4.0 dB"},
		},
	)

	lines := strings.Split(s, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| Type    | Fc      | Q    | Gain    |", lines[0])
	assert.Equal(t, "|:--------|:--------|:-----|:--------|", lines[1])
	for _, line := range lines {
		assert.Equal(t, len(lines[0]), len(line), "all rows share the same width")
	}
}

func TestRunReadme(t *testing.T) {
	ts := time.Date(2024, 5, 17, 12, 30, 15, 123456000, time.UTC)
	s := RunReadme(ts, []RunParam{
		{Name: "input_dir", Value: `"measurements"`},
		{Name: "bass_boost", Value: "4"},
	})

	lines := strings.Split(s, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "# Run 2024-05-17T12:30:15.123456", lines[0])
	assert.Equal(t, "There results were obtained with parameters:", lines[1])
	assert.Equal(t, "* `--input_dir=\"measurements\"`", lines[2])
	assert.Equal(t, "* `--bass_boost=4`", lines[3])
}
