// Package response implements frequency response processing for headphone
// equalization: interpolation onto a log-spaced frequency vector, calibration,
// centering, target compensation, smoothing and equalization curve
// computation.
package response

import (
	"fmt"
	"math"
	"sort"
)

// Defaults for the processing pipeline. Frequencies are in Hz, gains in dB,
// window sizes in octaves.
const (
	DefaultFMin = 20.0
	DefaultFMax = 20000.0
	DefaultStep = 1.01

	DefaultMaxGain       = 6.0
	DefaultTrebleFLower  = 6000.0
	DefaultTrebleFUpper  = 8000.0
	DefaultTrebleMaxGain = 0.0
	DefaultTrebleGainK   = 1.0
	DefaultBassBoost     = 0.0
	DefaultTilt          = 0.0

	DefaultSmoothingWindowSize       = 1.0 / 7.0
	DefaultSmoothingIterations       = 10
	DefaultTrebleSmoothingWindowSize = 1.0 / 5.0
	DefaultTrebleSmoothingIterations = 100

	// Bass boost is flat below the lower bound and rolls off to zero at the
	// upper bound with a sigmoid slope.
	BassBoostFLower = 60.0
	BassBoostFUpper = 200.0

	// GraphicEQStep is the frequency step for exported graphic EQ curves.
	// Coarser than DefaultStep to keep config files small.
	GraphicEQStep = 1.07
)

// FrequencyResponse holds a single measurement and every series derived from
// it during processing. All series are parallel to Frequency and sorted by
// ascending frequency. A nil series means the corresponding processing stage
// has not run.
type FrequencyResponse struct {
	Name string

	Frequency         []float64
	Raw               []float64
	Smoothed          []float64
	Error             []float64
	ErrorSmoothed     []float64
	Equalization      []float64
	ParametricEQ      []float64
	EqualizedRaw      []float64
	EqualizedSmoothed []float64
	Target            []float64
}

// New creates a FrequencyResponse from raw measurement data. When frequency is
// empty the standard log-spaced vector is generated. Data is sorted by
// frequency.
func New(name string, frequency, raw []float64) *FrequencyResponse {
	fr := &FrequencyResponse{Name: name}
	if len(frequency) == 0 {
		fr.Frequency = GenerateFrequencies(DefaultFMin, DefaultFMax, DefaultStep)
	} else {
		fr.Frequency = append([]float64(nil), frequency...)
	}
	fr.Raw = append([]float64(nil), raw...)
	fr.sort()
	return fr
}

// GenerateFrequencies produces the standard frequency vector: log-spaced
// values walked down and up from 20 kHz with the given step, rounded to
// integer Hz and deduplicated.
func GenerateFrequencies(fMin, fMax, step float64) []float64 {
	seen := make(map[int]struct{})
	var out []float64

	add := func(f float64) {
		r := int(math.Round(f))
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			out = append(out, float64(r))
		}
	}

	f := math.Min(20000, fMax)
	for f > fMin {
		add(f)
		f /= step
	}
	f = math.Min(20000, fMax)
	for f < fMax {
		add(f)
		f *= step
	}

	sort.Float64s(out)
	return out
}

// sort orders all series by ascending frequency.
func (fr *FrequencyResponse) sort() {
	inds := make([]int, len(fr.Frequency))
	for i := range inds {
		inds[i] = i
	}
	sort.Slice(inds, func(a, b int) bool {
		return fr.Frequency[inds[a]] < fr.Frequency[inds[b]]
	})

	reorder := func(s []float64) []float64 {
		if len(s) == 0 {
			return s
		}
		out := make([]float64, len(s))
		for i, ind := range inds {
			out[i] = s[ind]
		}
		return out
	}

	fr.Frequency = reorder(fr.Frequency)
	fr.Raw = reorder(fr.Raw)
	fr.Smoothed = reorder(fr.Smoothed)
	fr.Error = reorder(fr.Error)
	fr.ErrorSmoothed = reorder(fr.ErrorSmoothed)
	fr.Equalization = reorder(fr.Equalization)
	fr.ParametricEQ = reorder(fr.ParametricEQ)
	fr.EqualizedRaw = reorder(fr.EqualizedRaw)
	fr.EqualizedSmoothed = reorder(fr.EqualizedSmoothed)
	fr.Target = reorder(fr.Target)
}

// resetEqualization clears all equalization results.
func (fr *FrequencyResponse) resetEqualization() {
	fr.Equalization = nil
	fr.ParametricEQ = nil
	fr.EqualizedRaw = nil
	fr.EqualizedSmoothed = nil
}

// resetDerived clears everything derived from raw data.
func (fr *FrequencyResponse) resetDerived() {
	fr.Smoothed = nil
	fr.Error = nil
	fr.ErrorSmoothed = nil
	fr.Target = nil
	fr.resetEqualization()
}

// Interpolate resamples raw data onto freqs with linear interpolation over
// log10 frequency, extrapolating the edge segments. A nil freqs resamples onto
// the standard frequency vector. All derived series are reset.
func (fr *FrequencyResponse) Interpolate(freqs []float64) error {
	// Drop NaN samples before building the interpolator.
	var f, raw []float64
	for i := range fr.Raw {
		if !math.IsNaN(fr.Raw[i]) {
			f = append(f, fr.Frequency[i])
			raw = append(raw, fr.Raw[i])
		}
	}
	in, err := newInterpolator(f, raw)
	if err != nil {
		return fmt.Errorf("cannot interpolate %q: %w", fr.Name, err)
	}

	if freqs == nil {
		freqs = GenerateFrequencies(DefaultFMin, DefaultFMax, DefaultStep)
	}
	fr.Frequency = append([]float64(nil), freqs...)
	fr.Raw = make([]float64, len(freqs))
	for i, fq := range freqs {
		fr.Raw[i] = in.At(fq)
	}
	fr.resetDerived()
	return nil
}

// Calibrate subtracts the calibration curve from raw data. The calibration
// response must share this response's frequency vector.
func (fr *FrequencyResponse) Calibrate(calibration *FrequencyResponse) error {
	if len(calibration.Raw) != len(fr.Raw) {
		return fmt.Errorf("calibration data has %d points, expected %d; interpolate both to the same frequency vector first",
			len(calibration.Raw), len(fr.Raw))
	}
	for i := range fr.Raw {
		fr.Raw[i] -= calibration.Raw[i]
	}
	fr.resetDerived()
	return nil
}

// Center removes bias from the response by subtracting the raw value at 1 kHz
// from raw and smoothed data.
func (fr *FrequencyResponse) Center() error {
	in, err := newInterpolator(fr.Frequency, fr.Raw)
	if err != nil {
		return fmt.Errorf("cannot center %q: %w", fr.Name, err)
	}
	diff := in.At(1000)
	for i := range fr.Raw {
		fr.Raw[i] -= diff
	}
	for i := range fr.Smoothed {
		fr.Smoothed[i] -= diff
	}
	// Raw, smoothed and target survive centering, everything else is stale.
	fr.Error = nil
	fr.ErrorSmoothed = nil
	fr.resetEqualization()
	return nil
}

// interpolator evaluates a piecewise-linear function over log10 frequency,
// extrapolating the first and last segments beyond the data range.
type interpolator struct {
	logF []float64
	y    []float64
}

func newInterpolator(frequency, y []float64) (*interpolator, error) {
	if len(frequency) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(frequency))
	}
	if len(frequency) != len(y) {
		return nil, fmt.Errorf("mismatched data lengths: %d frequencies, %d values", len(frequency), len(y))
	}
	logF := make([]float64, len(frequency))
	for i, f := range frequency {
		logF[i] = math.Log10(f)
	}
	return &interpolator{logF: logF, y: append([]float64(nil), y...)}, nil
}

// At evaluates the interpolator at frequency f (Hz).
func (in *interpolator) At(f float64) float64 {
	x := math.Log10(f)
	n := len(in.logF)

	// Segment index, clamped so edge segments extrapolate.
	i := sort.SearchFloat64s(in.logF, x)
	if i <= 0 {
		i = 1
	} else if i >= n {
		i = n - 1
	}

	x0, x1 := in.logF[i-1], in.logF[i]
	y0, y1 := in.y[i-1], in.y[i]
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
