package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// Summary holds the per-window statistics shared by every cycle feature family.
type Summary struct {
	QuantileDeviation float64 // half the interquartile range
	Mean              float64
	Median            float64
	P80               float64
}

// Reduce summarises a non-empty set of values. All percentiles use linear interpolation
// between order statistics, so the results match numpy's default percentile method.
func Reduce(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyWindow
	}
	sorted := sortedCopy(values)
	return Summary{
		QuantileDeviation: quantileDeviation(sorted),
		Mean:              stat.Mean(values, nil),
		Median:            percentileSorted(sorted, 50),
		P80:               percentileSorted(sorted, 80),
	}, nil
}

// ReduceSequence summarises the samples of seq.
func ReduceSequence(seq datastream.Sequence) (Summary, error) {
	return Reduce(seq.Samples())
}

// Percentile returns the p-th percentile of values (0 <= p <= 100).
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), ErrEmptyWindow
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return math.NaN(), fmt.Errorf("%w: %g", ErrInvalidPercentile, p)
	}
	return percentileSorted(sortedCopy(values), p), nil
}

// QuantileDeviation returns 0.5 * (P75 - P25).
func QuantileDeviation(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), ErrEmptyWindow
	}
	return quantileDeviation(sortedCopy(values)), nil
}

// Variance is the population variance (divides by n).
func Variance(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), ErrEmptyWindow
	}
	return stat.PopVariance(values, nil), nil
}

func quantileDeviation(sorted []float64) float64 {
	return 0.5 * (percentileSorted(sorted, 75) - percentileSorted(sorted, 25))
}

// percentileSorted interpolates linearly at rank p/100*(n-1) of an ascending slice.
func percentileSorted(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
