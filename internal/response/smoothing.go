package response

import (
	"errors"
	"math"
)

// SmoothenOptions controls Savitzky-Golay smoothing. Window sizes are in
// octaves. Zero-valued treble fields fall back to the normal parameters and
// default transition bounds.
type SmoothenOptions struct {
	WindowSize       float64
	Iterations       int
	TrebleWindowSize float64
	TrebleIterations int
	TrebleFLower     float64
	TrebleFUpper     float64
}

// DefaultSmoothenOptions returns the smoothing parameters used by the
// standard pipeline.
func DefaultSmoothenOptions() SmoothenOptions {
	return SmoothenOptions{
		WindowSize:       DefaultSmoothingWindowSize,
		Iterations:       DefaultSmoothingIterations,
		TrebleWindowSize: DefaultTrebleSmoothingWindowSize,
		TrebleIterations: DefaultTrebleSmoothingIterations,
		TrebleFLower:     DefaultTrebleFLower,
		TrebleFUpper:     DefaultTrebleFUpper,
	}
}

func (o *SmoothenOptions) applyDefaults() {
	if o.TrebleWindowSize == 0 {
		o.TrebleWindowSize = o.WindowSize
	}
	if o.TrebleIterations == 0 {
		o.TrebleIterations = o.Iterations
	}
	if o.TrebleFLower == 0 {
		o.TrebleFLower = DefaultTrebleFLower
	}
	if o.TrebleFUpper == 0 {
		o.TrebleFUpper = DefaultTrebleFUpper
	}
}

// Smoothen smooths raw data (and error data when present) with an iterated
// Savitzky-Golay filter. Treble frequencies use their own window size and
// iteration count; the two results are blended with a sigmoid over the treble
// transition region.
func (fr *FrequencyResponse) Smoothen(opts SmoothenOptions) error {
	opts.applyDefaults()
	if opts.TrebleFUpper <= opts.TrebleFLower {
		return errors.New("upper treble transition boundary must be greater than lower boundary")
	}

	smoothed, err := fr.smoothenData(fr.Raw, opts)
	if err != nil {
		return err
	}
	fr.Smoothed = smoothed

	if len(fr.Error) > 0 {
		errSmoothed, err := fr.smoothenData(fr.Error, opts)
		if err != nil {
			return err
		}
		fr.ErrorSmoothed = errSmoothed
	}

	// Equalization results depend on smoothing, reset them.
	fr.resetEqualization()
	return nil
}

func (fr *FrequencyResponse) smoothenData(data []float64, opts SmoothenOptions) ([]float64, error) {
	if len(data) != len(fr.Frequency) {
		return nil, errors.New("data length does not match frequency vector")
	}
	for _, v := range data {
		if math.IsNaN(v) {
			return nil, errors.New("NaN values present, cannot smoothen")
		}
	}

	normal := append([]float64(nil), data...)
	window := fr.windowSize(opts.WindowSize)
	for i := 0; i < opts.Iterations; i++ {
		normal = savgol(normal, window)
	}

	treble := append([]float64(nil), data...)
	trebleWindow := fr.windowSize(opts.TrebleWindowSize)
	for i := 0; i < opts.TrebleIterations; i++ {
		treble = savgol(treble, trebleWindow)
	}

	kTreble := fr.sigmoid(opts.TrebleFLower, opts.TrebleFUpper, 0.0, 1.0)
	out := make([]float64, len(data))
	for i := range out {
		out[i] = normal[i]*(1-kTreble[i]) + treble[i]*kTreble[i]
	}
	return out, nil
}

// windowSize converts a window size in octaves to an odd number of indices on
// the log-spaced frequency vector.
func (fr *FrequencyResponse) windowSize(octaves float64) int {
	k := math.Pow(2, octaves)

	// Average multiplicative step between adjacent frequencies.
	var sum float64
	for i := 1; i < len(fr.Frequency); i++ {
		sum += fr.Frequency[i] / fr.Frequency[i-1]
	}
	stepSize := sum / float64(len(fr.Frequency)-1)

	window := int(math.Round(math.Log(k) / math.Log(stepSize)))
	if window%2 == 0 {
		window++
	}
	return window
}

// savgol applies a single pass of a Savitzky-Golay filter with a quadratic
// polynomial and the given odd window length. The first and last half-windows
// are filled by evaluating a least-squares quadratic fitted to the edge
// windows, matching the conventional "interp" edge mode.
func savgol(data []float64, window int) []float64 {
	n := len(data)
	if window > n {
		window = n
		if window%2 == 0 {
			window--
		}
	}
	if window < 3 {
		return append([]float64(nil), data...)
	}
	m := (window - 1) / 2

	// Closed-form smoothing coefficients for a quadratic fit.
	coeffs := make([]float64, window)
	denom := float64((2*m + 3) * (2*m + 1) * (2*m - 1))
	for j := -m; j <= m; j++ {
		coeffs[j+m] = 3 * float64(3*m*m+3*m-1-5*j*j) / denom
	}

	out := make([]float64, n)
	for i := m; i < n-m; i++ {
		var s float64
		for j := -m; j <= m; j++ {
			s += coeffs[j+m] * data[i+j]
		}
		out[i] = s
	}

	b0, b1, b2 := quadFit(data[:window])
	for i := 0; i < m; i++ {
		x := float64(i)
		out[i] = b0 + b1*x + b2*x*x
	}
	c0, c1, c2 := quadFit(data[n-window:])
	for i := n - m; i < n; i++ {
		x := float64(i - (n - window))
		out[i] = c0 + c1*x + c2*x*x
	}
	return out
}

// quadFit fits y = b0 + b1*x + b2*x^2 to data sampled at x = 0..len-1 by
// least squares, solving the 3x3 normal equations with Cramer's rule.
func quadFit(data []float64) (b0, b1, b2 float64) {
	var s0, s1, s2, s3, s4 float64
	var t0, t1, t2 float64
	for i, y := range data {
		x := float64(i)
		x2 := x * x
		s0++
		s1 += x
		s2 += x2
		s3 += x2 * x
		s4 += x2 * x2
		t0 += y
		t1 += x * y
		t2 += x2 * y
	}

	det := s0*(s2*s4-s3*s3) - s1*(s1*s4-s2*s3) + s2*(s1*s3-s2*s2)
	if det == 0 {
		return data[0], 0, 0
	}
	b0 = (t0*(s2*s4-s3*s3) - s1*(t1*s4-t2*s3) + s2*(t1*s3-t2*s2)) / det
	b1 = (s0*(t1*s4-t2*s3) - t0*(s1*s4-s2*s3) + s2*(s1*t2-s2*t1)) / det
	b2 = (s0*(s2*t2-s3*t1) - s1*(s1*t2-s2*t1) + t0*(s1*s3-s2*s2)) / det
	return b0, b1, b2
}
