package features

import (
	"errors"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/stats"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

const (
	RRVariance          = "rr_variance"
	RRMean              = "rr_mean"
	RRMedian            = "rr_median"
	RRQuartileDeviation = "rr_quartile_deviation"
	RR80                = "rr_80"
	RR20                = "rr_20"
	HeartRate           = "rr_heart_rate"
)

// ECGFeatureSet holds the windowed RR-interval statistics.
type ECGFeatureSet struct {
	Variance          datastream.Sequence
	Mean              datastream.Sequence
	Median            datastream.Sequence
	QuartileDeviation datastream.Sequence
	P80               datastream.Sequence
	P20               datastream.Sequence
	HeartRate         datastream.Sequence // beats per minute, mean of 60/rr
}

func (s *ECGFeatureSet) Features() []Feature {
	return []Feature{
		{Family: FamilyECG, Name: RRVariance, Series: s.Variance},
		{Family: FamilyECG, Name: RRMean, Series: s.Mean},
		{Family: FamilyECG, Name: RRMedian, Series: s.Median},
		{Family: FamilyECG, Name: RRQuartileDeviation, Series: s.QuartileDeviation},
		{Family: FamilyECG, Name: RR80, Series: s.P80},
		{Family: FamilyECG, Name: RR20, Series: s.P20},
		{Family: FamilyECG, Name: HeartRate, Series: s.HeartRate},
	}
}

// ComputeECG windows RR intervals (seconds) and reduces each window.
func (a *Assembler) ComputeECG(rr datastream.Sequence) *ECGFeatureSet {
	if rr.Empty() {
		a.unavailable(FamilyECG, "missing rr intervals")
		return nil
	}

	bins, err := window.Slide(rr, a.params)
	if err != nil {
		if !errors.Is(err, window.ErrEmptyInput) {
			a.unavailable(FamilyECG, "rr windowing failed", zap.Error(err))
		}
		return nil
	}

	variance := rr.Derive(RRVariance)
	mean := rr.Derive(RRMean)
	median := rr.Derive(RRMedian)
	qdev := rr.Derive(RRQuartileDeviation)
	p80 := rr.Derive(RR80)
	p20 := rr.Derive(RR20)
	hr := rr.Derive(HeartRate)

	for _, bin := range bins {
		samples := bin.Points.Samples()
		s, err := stats.Reduce(samples)
		var v, low float64
		if err == nil {
			v, err = stats.Variance(samples)
		}
		if err == nil {
			low, err = stats.Percentile(samples, 20)
		}
		if err != nil {
			a.unavailable(FamilyECG, "rr reduction failed", zap.Stringer("window", bin.Interval), zap.Error(err))
			return nil
		}

		start, end := bin.Interval.Start, bin.Interval.End
		variance.Append(datastream.NewIntervalPoint(start, end, v))
		mean.Append(datastream.NewIntervalPoint(start, end, s.Mean))
		median.Append(datastream.NewIntervalPoint(start, end, s.Median))
		qdev.Append(datastream.NewIntervalPoint(start, end, s.QuantileDeviation))
		p80.Append(datastream.NewIntervalPoint(start, end, s.P80))
		p20.Append(datastream.NewIntervalPoint(start, end, low))
		if bpm, ok := heartRate(samples); ok {
			hr.Append(datastream.NewIntervalPoint(start, end, bpm))
		}
	}

	return &ECGFeatureSet{
		Variance:          variance.Build(),
		Mean:              mean.Build(),
		Median:            median.Build(),
		QuartileDeviation: qdev.Build(),
		P80:               p80.Build(),
		P20:               p20.Build(),
		HeartRate:         hr.Build(),
	}
}

// heartRate averages 60/rr over the positive intervals of a window.
func heartRate(rr []float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range rr {
		if v <= 0 {
			continue
		}
		sum += 60 / v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
