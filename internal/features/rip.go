package features

import (
	"errors"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/cycle"
	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/stats"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

const (
	BreathRate              = "breath_rate"
	InspirationMinuteVolume = "inspiration_minute_volume"
)

// RIPFeatureSet holds the windowed respiration features.
type RIPFeatureSet struct {
	BreathRate              datastream.Sequence
	InspirationMinuteVolume datastream.Sequence
	Inspiration             SummarySeries
	Expiration              SummarySeries
	Respiration             SummarySeries
	IERatio                 SummarySeries
	Stretch                 SummarySeries
	RSA                     SummarySeries
}

// Features flattens the set in a stable order.
func (s *RIPFeatureSet) Features() []Feature {
	out := []Feature{
		{Family: FamilyRIP, Name: BreathRate, Series: s.BreathRate},
		{Family: FamilyRIP, Name: InspirationMinuteVolume, Series: s.InspirationMinuteVolume},
	}
	out = append(out, s.Inspiration.features(FamilyRIP, cycle.Inspiration)...)
	out = append(out, s.Expiration.features(FamilyRIP, cycle.Expiration)...)
	out = append(out, s.Respiration.features(FamilyRIP, cycle.Respiration)...)
	out = append(out, s.IERatio.features(FamilyRIP, cycle.IERatio)...)
	out = append(out, s.Stretch.features(FamilyRIP, cycle.Stretch)...)
	out = append(out, s.RSA.features(FamilyRIP, cycle.RSA)...)
	return out
}

// ComputeRIP derives breath cycles from peaks and valleys, then windows and reduces every
// cycle family independently. Breath rate and inspiration minute volume come from the
// valley windows together with the peaks inside the same interval. rr may be empty, in
// which case the RSA series are empty.
func (a *Assembler) ComputeRIP(peaks, valleys, rr datastream.Sequence) *RIPFeatureSet {
	if peaks.Empty() || valleys.Empty() {
		a.unavailable(FamilyRIP, "missing peaks or valleys",
			zap.Int("peaks", peaks.Len()), zap.Int("valleys", valleys.Len()))
		return nil
	}

	cycles, err := cycle.ExtractBreathCycles(peaks, valleys)
	if err != nil {
		a.unavailable(FamilyRIP, "breath cycle extraction failed", zap.Error(err))
		return nil
	}
	rsa := cycle.ExtractRSA(cycles.Cycles, rr)

	set := &RIPFeatureSet{}
	if set.BreathRate, set.InspirationMinuteVolume, err = a.valleyWindows(peaks, valleys, rr.Name()); err != nil {
		a.unavailable(FamilyRIP, "valley windowing failed", zap.Error(err))
		return nil
	}

	for _, f := range []struct {
		dst *SummarySeries
		src datastream.Sequence
	}{
		{&set.Inspiration, cycles.Inspiration},
		{&set.Expiration, cycles.Expiration},
		{&set.Respiration, cycles.Respiration},
		{&set.IERatio, cycles.IERatio},
		{&set.Stretch, cycles.Stretch},
		{&set.RSA, rsa},
	} {
		if *f.dst, err = a.summarize(f.src); err != nil {
			a.unavailable(FamilyRIP, "summary failed", zap.String("series", f.src.Name()), zap.Error(err))
			return nil
		}
	}

	a.logger.Debug("RIP features computed",
		zap.Int("cycles", cycles.Len()),
		zap.Int("rsa_cycles", rsa.Len()),
		zap.Int("windows", set.BreathRate.Len()),
	)
	return set
}

func (a *Assembler) valleyWindows(peaks, valleys datastream.Sequence, rrName string) (rate, volume datastream.Sequence, err error) {
	rateB := datastream.NewBuilder(BreathRate, valleys.Name(), rrName)
	volumeB := datastream.NewBuilder(InspirationMinuteVolume, peaks.Name(), valleys.Name(), rrName)

	bins, err := window.Slide(valleys, a.params)
	if err != nil && !errors.Is(err, window.ErrEmptyInput) {
		return datastream.Sequence{}, datastream.Sequence{}, err
	}
	for _, bin := range bins {
		start, end := bin.Interval.Start, bin.Interval.End
		// peaks before the window's first valley belong to the previous cycle
		inside := window.Restrict(peaks, window.Interval{Start: bin.Points.First().Start, End: end})
		rateB.Append(datastream.NewIntervalPoint(start, end, stats.BreathRate(bin.Points)))
		volumeB.Append(datastream.NewIntervalPoint(start, end, stats.InspirationMinuteVolume(inside, bin.Points)))
	}
	return rateB.Build(), volumeB.Build(), nil
}
