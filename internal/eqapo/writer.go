// Package eqapo renders equalization results as EqualizerAPO configuration
// files and readmes.
package eqapo

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/pkg/models"
)

// GraphicEQ renders the equalization curve as an EqualizerAPO GraphicEQ
// config line. The curve is resampled onto the coarse graphic EQ frequency
// vector; the leading "10 -84" band keeps EqualizerAPO from boosting
// inaudible sub-bass.
func GraphicEQ(fr *response.FrequencyResponse) (string, error) {
	if len(fr.Equalization) == 0 {
		return "", errors.New("equalization has not been done yet")
	}

	curve := response.New("graphic", fr.Frequency, fr.Equalization)
	freqs := response.GenerateFrequencies(response.DefaultFMin, response.DefaultFMax, response.GraphicEQStep)
	if err := curve.Interpolate(freqs); err != nil {
		return "", err
	}

	parts := make([]string, len(curve.Frequency))
	for i, f := range curve.Frequency {
		parts[i] = fmt.Sprintf("%d %.1f", int(math.Round(f)), curve.Raw[i])
	}
	return "GraphicEQ: 10 -84; " + strings.Join(parts, "; "), nil
}

// WriteGraphicEQ writes the GraphicEQ config to a file and returns the
// rendered string.
func WriteGraphicEQ(path string, fr *response.FrequencyResponse) (string, error) {
	s, err := GraphicEQ(fr)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		return "", fmt.Errorf("failed to write graphic EQ config: %w", err)
	}
	return s, nil
}

// ParametricEQ renders filters as EqualizerAPO parametric filter lines.
func ParametricEQ(filters []models.Filter) string {
	lines := make([]string, len(filters))
	for i, flt := range filters {
		lines[i] = fmt.Sprintf("Filter %d: ON PK Fc %.0f Hz Gain %.1f dB Q %.2f",
			i+1, flt.Fc, flt.Gain, flt.Q)
	}
	return strings.Join(lines, "\n")
}

// WriteParametricEQ writes the parametric EQ config to a file and returns the
// rendered string.
func WriteParametricEQ(path string, filters []models.Filter) (string, error) {
	s := ParametricEQ(filters)
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		return "", fmt.Errorf("failed to write parametric EQ config: %w", err)
	}
	return s, nil
}

// GraphicPreamp computes the preamp in dB for the graphic EQ configuration:
// the largest positive gain negated, rounded down to 0.1 dB with 0.5 dB of
// headroom.
func GraphicPreamp(equalization []float64) float64 {
	preamp := math.Min(0.0, -maxValue(equalization))
	return math.Floor(preamp*10)/10 - 0.5
}

// ParametricPreamp computes the preamp in dB for the parametric EQ
// configuration. Headroom of 0.5 dB rounded down to 0.5 dB resolution covers
// small filters removed during optimization.
func ParametricPreamp(parametricEQ []float64) float64 {
	preamp := math.Min(0.0, -maxValue(parametricEQ))
	return math.Floor((preamp-0.5)*2) / 2
}

func maxValue(data []float64) float64 {
	m := math.Inf(-1)
	for _, v := range data {
		if v > m {
			m = v
		}
	}
	return m
}
