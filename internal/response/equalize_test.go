package response

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compensateFlat sets up a response with the given error curve by
// compensating against a flat target.
func compensateFlat(t *testing.T, raw func(f float64) float64) *FrequencyResponse {
	t.Helper()
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))
	for i, f := range fr.Frequency {
		fr.Raw[i] = raw(f)
	}
	comp := New("comp", fr.Frequency, make([]float64, len(fr.Frequency)))
	require.NoError(t, fr.Compensate(comp, 0, 0))
	return fr
}

func TestEqualize_InvertsError(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return -3.0 })

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	require.NoError(t, fr.Equalize(opts))

	// A flat -3 dB response needs +3 dB gain in the bass and mids. The treble
	// region is limited by TrebleMaxGain (0 dB by default).
	in, err := newInterpolator(fr.Frequency, fr.Equalization)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, in.At(100), 0.01)
	assert.InDelta(t, 3.0, in.At(1000), 0.01)
	assert.InDelta(t, 0.0, in.At(20000), 0.1)
}

func TestEqualize_ClipsToMaxGain(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return -20.0 })

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	require.NoError(t, fr.Equalize(opts))

	for i, g := range fr.Equalization {
		assert.LessOrEqual(t, g, DefaultMaxGain+1e-9, "gain at %.0f Hz exceeds max gain", fr.Frequency[i])
	}
}

func TestEqualize_NegativeGainNotClipped(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return 15.0 })

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	require.NoError(t, fr.Equalize(opts))

	in, err := newInterpolator(fr.Frequency, fr.Equalization)
	require.NoError(t, err)
	assert.InDelta(t, -15.0, in.At(1000), 0.01, "cuts deeper than max gain are allowed")
}

func TestEqualize_EqualizedRawIsRawPlusEqualization(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return math.Sin(math.Log10(f)) * 3 })

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	require.NoError(t, fr.Equalize(opts))

	require.Len(t, fr.EqualizedRaw, len(fr.Raw))
	for i := range fr.Raw {
		assert.InDelta(t, fr.Raw[i]+fr.Equalization[i], fr.EqualizedRaw[i], 1e-9)
	}
}

func TestEqualize_KinkSmoothingKeepsGainBounded(t *testing.T) {
	// A deep notch forces clipping and produces kinks at the clip boundaries.
	fr := compensateFlat(t, func(f float64) float64 {
		if f > 300 && f < 800 {
			return -20.0
		}
		return 0.0
	})
	require.NoError(t, fr.Smoothen(DefaultSmoothenOptions()))

	require.NoError(t, fr.Equalize(DefaultEqualizeOptions()))

	// Smoothing the kinks may overshoot slightly but must stay close to the
	// clip ceiling.
	for _, g := range fr.Equalization {
		assert.LessOrEqual(t, g, DefaultMaxGain+1.0)
	}
}

func TestEqualize_TrebleGainKReducesTrebleCut(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return 10.0 })

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	opts.TrebleGainK = 0.0
	require.NoError(t, fr.Equalize(opts))

	in, err := newInterpolator(fr.Frequency, fr.Equalization)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, in.At(100), 0.05, "normal region keeps full gain")
	assert.InDelta(t, 0.0, in.At(20000), 0.2, "treble gain coefficient of 0 disables treble equalization")
}

func TestEqualize_RequiresErrorData(t *testing.T) {
	fr := New("test", nil, nil)
	fr.Raw = make([]float64, len(fr.Frequency))

	assert.Error(t, fr.Equalize(DefaultEqualizeOptions()))
}

func TestEqualize_PrefersSmoothedError(t *testing.T) {
	fr := compensateFlat(t, func(f float64) float64 { return -2.0 })
	fr.ErrorSmoothed = make([]float64, len(fr.Frequency))
	for i := range fr.ErrorSmoothed {
		fr.ErrorSmoothed[i] = -1.0
	}

	opts := DefaultEqualizeOptions()
	opts.Smoothen = false
	require.NoError(t, fr.Equalize(opts))

	in, err := newInterpolator(fr.Frequency, fr.Equalization)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, in.At(1000), 0.01)
}
