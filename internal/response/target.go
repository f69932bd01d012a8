package response

import (
	"fmt"
	"math"
)

// sigmoid produces a per-frequency weighting that transitions from aNormal
// below fLower to aTreble above fUpper. The transition is a logistic curve
// over log10 frequency centered at the geometric mean of the bounds.
func (fr *FrequencyResponse) sigmoid(fLower, fUpper, aNormal, aTreble float64) []float64 {
	fCenter := math.Sqrt(fUpper/fLower) * fLower
	halfRange := math.Log10(fUpper) - math.Log10(fCenter)
	logCenter := math.Log10(fCenter)

	out := make([]float64, len(fr.Frequency))
	for i, f := range fr.Frequency {
		a := 1 / (1 + math.Exp(-(math.Log10(f)-logCenter)/(halfRange/4)))
		out[i] = a*-(aNormal-aTreble) + aNormal
	}
	return out
}

// tilt produces a linear slope in dB over octaves, zero at the logarithmic
// center of the full frequency range.
func (fr *FrequencyResponse) tilt(tilt float64) []float64 {
	c := DefaultFMin * math.Sqrt(DefaultFMax/DefaultFMin)
	out := make([]float64, len(fr.Frequency))
	for i, f := range fr.Frequency {
		out[i] = math.Log2(f/c) * tilt
	}
	return out
}

// targetOffset combines the bass boost shelf and tilt into the offset that is
// added on top of the compensation curve.
func (fr *FrequencyResponse) targetOffset(bassBoost, tilt float64) []float64 {
	boost := fr.sigmoid(BassBoostFLower, BassBoostFUpper, bassBoost, 0.0)
	slope := fr.tilt(tilt)
	out := make([]float64, len(fr.Frequency))
	for i := range out {
		out[i] = boost[i] + slope[i]
	}
	return out
}

// Compensate sets the target curve from the compensation response plus bass
// boost and tilt, and computes the error as raw minus target. The compensation
// response must share this response's frequency vector; it is smoothed and
// centered on a copy, raw data is not changed.
func (fr *FrequencyResponse) Compensate(compensation *FrequencyResponse, bassBoost, tilt float64) error {
	if len(compensation.Raw) != len(fr.Raw) {
		return fmt.Errorf("compensation data has %d points, expected %d; interpolate both to the same frequency vector first",
			len(compensation.Raw), len(fr.Raw))
	}

	comp := New("compensation", compensation.Frequency, compensation.Raw)
	if err := comp.Smoothen(SmoothenOptions{
		WindowSize: DefaultTrebleSmoothingWindowSize,
		Iterations: DefaultTrebleSmoothingIterations,
	}); err != nil {
		return fmt.Errorf("smoothing compensation curve: %w", err)
	}
	if err := comp.Center(); err != nil {
		return fmt.Errorf("centering compensation curve: %w", err)
	}
	comp.Raw = comp.Smoothed
	comp.Smoothed = nil

	offset := fr.targetOffset(bassBoost, tilt)
	fr.Target = make([]float64, len(fr.Raw))
	fr.Error = make([]float64, len(fr.Raw))
	for i := range fr.Raw {
		fr.Target[i] = comp.Raw[i] + offset[i]
		fr.Error[i] = fr.Raw[i] - fr.Target[i]
	}

	// Smoothed error and equalization results are stale now.
	fr.ErrorSmoothed = nil
	fr.resetEqualization()
	return nil
}
