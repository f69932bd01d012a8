package response

import (
	"errors"
	"fmt"
)

// EqualizeOptions controls equalization curve computation.
type EqualizeOptions struct {
	MaxGain       float64
	Smoothen      bool // smooth the kinks caused by clipping gain to max gain
	TrebleFLower  float64
	TrebleFUpper  float64
	TrebleMaxGain float64
	TrebleGainK   float64
}

// DefaultEqualizeOptions returns the equalization parameters used by the
// standard pipeline.
func DefaultEqualizeOptions() EqualizeOptions {
	return EqualizeOptions{
		MaxGain:       DefaultMaxGain,
		Smoothen:      true,
		TrebleFLower:  DefaultTrebleFLower,
		TrebleFUpper:  DefaultTrebleFUpper,
		TrebleMaxGain: DefaultTrebleMaxGain,
		TrebleGainK:   DefaultTrebleGainK,
	}
}

// Equalize computes the equalization curve by inverting the error and the
// equalized response curves by applying it. Positive gain is clipped to a
// per-frequency maximum that transitions from MaxGain to TrebleMaxGain over
// the treble region, and all gain is scaled with a similar transition from
// 1.0 to TrebleGainK. Smoothed error data is preferred over plain error.
func (fr *FrequencyResponse) Equalize(opts EqualizeOptions) error {
	var errData []float64
	switch {
	case len(fr.ErrorSmoothed) > 0:
		errData = fr.ErrorSmoothed
	case len(fr.Error) > 0:
		errData = fr.Error
	default:
		return errors.New("error data is missing, call Compensate first")
	}

	maxGain := fr.sigmoid(opts.TrebleFLower, opts.TrebleFUpper, opts.MaxGain, opts.TrebleMaxGain)
	gainK := fr.sigmoid(opts.TrebleFLower, opts.TrebleFUpper, 1.0, opts.TrebleGainK)

	// Invert with max gain clipping, recording clip boundary indices.
	eq := make([]float64, len(errData))
	previousClipped := false
	var kinkInds []int
	for i := range errData {
		gain := -errData[i] * gainK[i]
		clipped := gain > maxGain[i]
		if clipped != previousClipped {
			kinkInds = append(kinkInds, i)
		}
		previousClipped = clipped
		if clipped {
			gain = maxGain[i]
		}
		eq[i] = gain
	}
	if len(kinkInds) > 0 && kinkInds[0] == 0 {
		kinkInds = kinkInds[1:]
	}

	if opts.Smoothen {
		smoothed, err := fr.smoothKinks(eq, kinkInds)
		if err != nil {
			return err
		}
		eq = smoothed
	}

	fr.Equalization = eq
	fr.EqualizedRaw = make([]float64, len(fr.Raw))
	for i := range fr.Raw {
		fr.EqualizedRaw[i] = fr.Raw[i] + eq[i]
	}
	if len(fr.Smoothed) > 0 {
		fr.EqualizedSmoothed = make([]float64, len(fr.Smoothed))
		for i := range fr.Smoothed {
			fr.EqualizedSmoothed[i] = fr.Smoothed[i] + eq[i]
		}
	}
	return nil
}

// smoothKinks removes a 1/12 octave window around each clipping kink and
// re-interpolates the gaps over log frequency. The last two indices are never
// removed so the curve keeps its endpoint.
func (fr *FrequencyResponse) smoothKinks(eq []float64, kinkInds []int) ([]float64, error) {
	if len(kinkInds) == 0 {
		return eq, nil
	}

	window := fr.windowSize(1.0 / 12.0)
	doomed := make(map[int]struct{})
	for _, i := range kinkInds {
		start := i - min(i, (window-1)/2)
		end := i + 1 + min(len(eq)-i-1, (window-1)/2)
		for j := start; j < end; j++ {
			doomed[j] = struct{}{}
		}
	}
	delete(doomed, len(fr.Frequency)-1)
	delete(doomed, len(fr.Frequency)-2)

	var f, e []float64
	for i := range eq {
		if _, ok := doomed[i]; !ok {
			f = append(f, fr.Frequency[i])
			e = append(e, eq[i])
		}
	}
	in, err := newInterpolator(f, e)
	if err != nil {
		return nil, fmt.Errorf("cannot smooth equalization kinks: %w", err)
	}

	out := make([]float64, len(eq))
	for i, fq := range fr.Frequency {
		out[i] = in.At(fq)
	}
	return out, nil
}
