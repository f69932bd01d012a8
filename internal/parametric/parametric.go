// Package parametric fits a bank of peaking biquad filters to an
// equalization curve so the result can be used with parametric equalizers.
package parametric

import (
	"errors"
	"math"
	"sort"

	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/pkg/models"
)

const (
	// SampleRate used for filter design. EqualizerAPO and most consumer
	// equalizers run at 48 kHz.
	SampleRate = 48000.0

	// Filters with less gain than this are dropped.
	minFilterGain = 0.1

	targetLoss = 0.1
	maxPasses  = 200
)

// Response computes the combined magnitude response in dB of peaking filters
// at the given frequencies.
func Response(frequency []float64, filters []models.Filter) []float64 {
	out := make([]float64, len(frequency))
	for _, flt := range filters {
		c := design.Peak(flt.Fc, flt.Gain, flt.Q, SampleRate)
		for i, f := range frequency {
			out[i] += c.MagnitudeDB(f, SampleRate)
		}
	}
	return out
}

// FitResult holds the outcome of a parametric EQ fit.
type FitResult struct {
	Filters []models.Filter
	// EQ is the combined response of the fitted filters on the input
	// frequency vector.
	EQ []float64
	// RMSE is the root mean squared error between EQ and the target in dB.
	RMSE float64
}

// Fit optimizes peaking filters against the target curve. Initial center
// frequencies and gains come from the extrema of a heavily smoothed copy of
// the target; the filter count is reduced to maxFilters (0 means unlimited)
// before coordinate-descent optimization of every (fc, Q, gain) triple.
func Fit(frequency, target []float64, maxFilters int) (*FitResult, error) {
	if len(frequency) != len(target) || len(frequency) < 3 {
		return nil, errors.New("target must be a curve on the full frequency vector")
	}

	filters, err := initFilters(frequency, target, maxFilters)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return &FitResult{EQ: make([]float64, len(frequency))}, nil
	}

	filters, loss := optimize(frequency, target, filters)

	// The optimizer can shrink filters below usefulness, drop those.
	kept := filters[:0]
	for _, flt := range filters {
		if math.Abs(flt.Gain) > minFilterGain {
			kept = append(kept, flt)
		}
	}
	sort.Slice(kept, func(a, b int) bool { return kept[a].Fc < kept[b].Fc })

	return &FitResult{
		Filters: kept,
		EQ:      Response(frequency, kept),
		RMSE:    math.Sqrt(loss),
	}, nil
}

// initFilters builds the initial filter bank from the smoothed target curve.
func initFilters(frequency, target []float64, maxFilters int) ([]models.Filter, error) {
	fr := response.New("filter initialization", frequency, target)
	if err := fr.Smoothen(response.SmoothenOptions{
		WindowSize: 1.0 / 7.0,
		Iterations: 1000,
	}); err != nil {
		return nil, err
	}
	smoothed := fr.Smoothed

	// Local extrema of the smoothed curve, both boosts and cuts.
	inds := localMaxima(smoothed)
	inds = append(inds, localMinima(smoothed)...)
	sort.Ints(inds)

	var fc, gain []float64
	for _, i := range inds {
		if math.Abs(smoothed[i]) > minFilterGain {
			fc = append(fc, frequency[i])
			gain = append(gain, smoothed[i])
		}
	}
	if len(fc) == 0 {
		return nil, nil
	}

	// Anchor the bass when the first extremum sits high: dips below it would
	// otherwise be left without a filter.
	switch {
	case fc[0] > 80:
		fc = append([]float64{20, 60}, fc...)
		gain = append([]float64{gainAt(frequency, smoothed, 20), gainAt(frequency, smoothed, 60)}, gain...)
	case fc[0] > 40:
		fc = append([]float64{20}, fc...)
		gain = append([]float64{gainAt(frequency, smoothed, 20)}, gain...)
	}

	fc, gain = reduce(frequency, smoothed, fc, gain, maxFilters)

	filters := make([]models.Filter, len(fc))
	for i := range fc {
		filters[i] = models.Filter{Fc: fc[i], Q: 1.0, Gain: gain[i]}
	}
	return filters, nil
}

// reduce trims the filter bank to at most maxFilters entries by dropping
// small filters, merging adjacent same-sign pairs and finally keeping the
// largest by gain.
func reduce(frequency, smoothed, fc, gain []float64, maxFilters int) ([]float64, []float64) {
	removeSmall := func(minGain float64) {
		var f, g []float64
		for i := range fc {
			if math.Abs(gain[i]) > minGain {
				f = append(f, fc[i])
				g = append(g, gain[i])
			}
		}
		fc, gain = f, g
	}

	removeSmall(minFilterGain)
	if maxFilters <= 0 || len(fc) <= maxFilters {
		return fc, gain
	}

	removeSmall(0.2)
	if len(fc) > maxFilters {
		removeSmall(0.33)
	}
	for len(fc) > maxFilters {
		if !mergePair(frequency, smoothed, &fc, &gain) {
			break
		}
	}
	if len(fc) > maxFilters {
		// Keep the filters with the largest gains.
		inds := make([]int, len(fc))
		for i := range inds {
			inds[i] = i
		}
		sort.Slice(inds, func(a, b int) bool {
			return math.Abs(gain[inds[a]]) > math.Abs(gain[inds[b]])
		})
		inds = inds[:maxFilters]
		sort.Ints(inds)
		var f, g []float64
		for _, i := range inds {
			f = append(f, fc[i])
			g = append(g, gain[i])
		}
		fc, gain = f, g
	}
	return fc, gain
}

// mergePair merges the adjacent same-sign filter pair whose straight-line
// replacement tracks the smoothed target best. Returns false when no pair is
// close enough to merge.
func mergePair(frequency, smoothed []float64, fc, gain *[]float64) bool {
	f, g := *fc, *gain

	minErr := math.Inf(1)
	minInd := -1
	for j := 0; j < len(f)-1; j++ {
		if math.Signbit(g[j]) != math.Signbit(g[j+1]) {
			continue
		}
		i0 := nearestIndex(frequency, f[j])
		i1 := nearestIndex(frequency, f[j+1])
		if i1 <= i0 {
			continue
		}
		// RMSE between the log-linear bridge of the pair and the target.
		var sum float64
		x0, x1 := math.Log10(f[j]), math.Log10(f[j+1])
		for i := i0; i <= i1; i++ {
			x := math.Log10(frequency[i])
			line := g[j] + (g[j+1]-g[j])*(x-x0)/(x1-x0)
			d := line - smoothed[i]
			sum += d * d
		}
		err := math.Sqrt(sum / float64(i1-i0+1))
		if err < minErr {
			minErr = err
			minInd = j
		}
	}
	if minInd < 0 || minErr >= 0.3 {
		return false
	}

	// Replace the pair with one filter at their geometric mean frequency,
	// snapped to the grid, with the averaged gain.
	c := f[minInd] * math.Sqrt(f[minInd+1]/f[minInd])
	c = frequency[nearestIndex(frequency, c)]
	merged := (g[minInd] + g[minInd+1]) / 2

	f = append(f[:minInd], append([]float64{c}, f[minInd+2:]...)...)
	g = append(g[:minInd], append([]float64{merged}, g[minInd+2:]...)...)
	*fc, *gain = f, g
	return true
}

// optimize runs coordinate descent over every filter parameter. Step sizes
// shrink as passes stop improving; optimization ends at targetLoss or when a
// full pass makes no progress.
func optimize(frequency, target []float64, filters []models.Filter) ([]models.Filter, float64) {
	n := len(frequency)

	// Per-filter response cache so a single parameter change only recomputes
	// one filter's curve.
	curves := make([][]float64, len(filters))
	total := make([]float64, n)
	for k, flt := range filters {
		curves[k] = filterCurve(frequency, flt)
		for i := range total {
			total[i] += curves[k][i]
		}
	}
	loss := meanSquaredError(total, target)

	fcStep := math.Pow(2, 1.0/6.0)
	qStep := 1.4
	gainStep := 1.0

	for pass := 0; pass < maxPasses && loss > targetLoss; pass++ {
		improved := false
		for k := range filters {
			try := func(candidate models.Filter) {
				if candidate.Fc < 20 || candidate.Fc > 20000 || candidate.Q < 0.1 || candidate.Q > 10 {
					return
				}
				curve := filterCurve(frequency, candidate)
				newLoss := swappedLoss(total, curves[k], curve, target)
				if newLoss < loss {
					for i := range total {
						total[i] += curve[i] - curves[k][i]
					}
					curves[k] = curve
					filters[k] = candidate
					loss = newLoss
					improved = true
				}
			}

			flt := filters[k]
			try(models.Filter{Fc: flt.Fc * fcStep, Q: flt.Q, Gain: flt.Gain})
			flt = filters[k]
			try(models.Filter{Fc: flt.Fc / fcStep, Q: flt.Q, Gain: flt.Gain})
			flt = filters[k]
			try(models.Filter{Fc: flt.Fc, Q: flt.Q * qStep, Gain: flt.Gain})
			flt = filters[k]
			try(models.Filter{Fc: flt.Fc, Q: flt.Q / qStep, Gain: flt.Gain})
			flt = filters[k]
			try(models.Filter{Fc: flt.Fc, Q: flt.Q, Gain: flt.Gain + gainStep})
			flt = filters[k]
			try(models.Filter{Fc: flt.Fc, Q: flt.Q, Gain: flt.Gain - gainStep})
		}
		if !improved {
			if fcStep < 1.001 && qStep < 1.001 && gainStep < 0.01 {
				break
			}
			fcStep = math.Max(math.Sqrt(fcStep), 1.0005)
			qStep = math.Max(math.Sqrt(qStep), 1.0005)
			gainStep = math.Max(gainStep/2, 0.005)
		}
	}
	return filters, loss
}

func filterCurve(frequency []float64, flt models.Filter) []float64 {
	c := design.Peak(flt.Fc, flt.Gain, flt.Q, SampleRate)
	out := make([]float64, len(frequency))
	for i, f := range frequency {
		out[i] = c.MagnitudeDB(f, SampleRate)
	}
	return out
}

func meanSquaredError(got, want []float64) float64 {
	var sum float64
	for i := range got {
		d := got[i] - want[i]
		sum += d * d
	}
	return sum / float64(len(got))
}

// swappedLoss computes the loss of total with old replaced by repl without
// mutating total.
func swappedLoss(total, old, repl, target []float64) float64 {
	var sum float64
	for i := range total {
		d := total[i] - old[i] + repl[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(total))
}

func localMaxima(data []float64) []int {
	var out []int
	for i := 1; i < len(data)-1; i++ {
		if data[i] > data[i-1] && data[i] > data[i+1] && data[i] > 0 {
			out = append(out, i)
		}
	}
	return out
}

func localMinima(data []float64) []int {
	var out []int
	for i := 1; i < len(data)-1; i++ {
		if data[i] < data[i-1] && data[i] < data[i+1] && data[i] < 0 {
			out = append(out, i)
		}
	}
	return out
}

func nearestIndex(frequency []float64, f float64) int {
	best := 0
	bestDiff := math.Inf(1)
	for i, v := range frequency {
		d := math.Abs(v - f)
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

// gainAt interpolates the smoothed curve at f over log frequency.
func gainAt(frequency, smoothed []float64, f float64) float64 {
	x := math.Log10(f)
	for i := 1; i < len(frequency); i++ {
		x1 := math.Log10(frequency[i])
		if x1 >= x {
			x0 := math.Log10(frequency[i-1])
			if x1 == x0 {
				return smoothed[i]
			}
			t := (x - x0) / (x1 - x0)
			return smoothed[i-1] + (smoothed[i]-smoothed[i-1])*t
		}
	}
	return smoothed[len(smoothed)-1]
}
