package features

import (
	"errors"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/cycle"
	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/stats"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

// jointFamilies are the cycle series reduced inside every joint window, in output order.
var jointFamilies = []string{
	cycle.Inspiration,
	cycle.Expiration,
	cycle.Respiration,
	cycle.IERatio,
	cycle.Stretch,
	cycle.RSA,
}

// JointFeatureNames lists the columns of JointWindow.Values.
var JointFeatureNames = func() []string {
	names := []string{BreathRate, InspirationMinuteVolume}
	for _, f := range jointFamilies {
		names = append(names, f+suffixQDev, f+suffixMean, f+suffixMedian, f+suffixP80)
	}
	return names
}()

// JointWindow is one flat feature vector computed from peaks, valleys and RR intervals
// that share the same window.
type JointWindow struct {
	Interval window.Interval
	Values   []float64 // indexed like JointFeatureNames
}

// Features converts the vector into named single-point features.
func (w JointWindow) Features() []Feature {
	out := make([]Feature, 0, len(w.Values))
	for i, v := range w.Values {
		b := datastream.NewBuilder(JointFeatureNames[i])
		b.Append(datastream.NewIntervalPoint(w.Interval.Start, w.Interval.End, v))
		out = append(out, Feature{Family: FamilyJoint, Name: JointFeatureNames[i], Series: b.Build()})
	}
	return out
}

// ComputeJointWindows windows the three streams together and, inside each window, rebuilds
// the breath cycles and reduces every family. Windows whose cycles have no RR coverage
// are skipped. Returns nil when no window could be produced.
func (a *Assembler) ComputeJointWindows(peaks, valleys, rr datastream.Sequence) []JointWindow {
	bins, err := window.SlideJoint(window.JointInput{Peaks: peaks, Valleys: valleys, RRIntervals: rr}, a.params)
	if err != nil {
		if errors.Is(err, window.ErrEmptyInput) {
			a.unavailable(FamilyJoint, "missing input stream", zap.Error(err))
		} else {
			a.unavailable(FamilyJoint, "joint windowing failed", zap.Error(err))
		}
		return nil
	}

	var out []JointWindow
	for _, bin := range bins {
		values, reason := jointVector(bin)
		if reason != "" {
			a.logger.Debug("Joint window skipped",
				zap.Stringer("window", bin.Interval), zap.String("reason", reason))
			continue
		}
		out = append(out, JointWindow{Interval: bin.Interval, Values: values})
	}
	if len(out) == 0 {
		a.unavailable(FamilyJoint, "no usable windows", zap.Int("bins", len(bins)))
		return nil
	}
	return out
}

// jointVector returns the feature vector of one bin or a non-empty reason it has none.
func jointVector(bin window.JointBin) ([]float64, string) {
	// peaks before the first valley belong to a cycle that started outside the window
	peaks := window.Restrict(bin.Peaks, window.Interval{Start: bin.Valleys.First().Start, End: bin.Interval.End})
	if peaks.Empty() {
		return nil, "no peak after first valley"
	}
	cycles, err := cycle.ExtractBreathCycles(peaks, bin.Valleys)
	if err != nil {
		return nil, err.Error()
	}
	if cycles.Len() == 0 {
		return nil, "no complete breath cycle"
	}
	rsa := cycle.ExtractRSA(cycles.Cycles, bin.RRIntervals)
	if rsa.Empty() {
		return nil, "no rr interval inside any cycle"
	}

	values := make([]float64, 0, len(JointFeatureNames))
	values = append(values,
		stats.BreathRate(bin.Valleys),
		stats.InspirationMinuteVolume(peaks, bin.Valleys),
	)
	for _, seq := range []datastream.Sequence{
		cycles.Inspiration, cycles.Expiration, cycles.Respiration, cycles.IERatio, cycles.Stretch, rsa,
	} {
		s, err := stats.ReduceSequence(seq)
		if err != nil {
			return nil, err.Error()
		}
		values = append(values, s.QuantileDeviation, s.Mean, s.Median, s.P80)
	}
	return values, ""
}
