package features

import (
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/cycle"
	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// Input is the detected event streams of one recording segment. RRIntervals may be left
// empty when RPeaks are present; they are then derived from the R-peaks.
type Input struct {
	Peaks       datastream.Sequence
	Valleys     datastream.Sequence
	RRIntervals datastream.Sequence
	RPeaks      datastream.Sequence
}

// Result collects every feature family of one segment. Absent families are nil.
type Result struct {
	RIP    *RIPFeatureSet
	Cycles *CycleFeatureSet
	ECG    *ECGFeatureSet
	Joint  []JointWindow
}

// Empty reports whether no family produced anything.
func (r Result) Empty() bool {
	return r.RIP == nil && r.Cycles == nil && r.ECG == nil && len(r.Joint) == 0
}

// Features flattens all present families.
func (r Result) Features() []Feature {
	var out []Feature
	if r.RIP != nil {
		out = append(out, r.RIP.Features()...)
	}
	if r.Cycles != nil {
		out = append(out, r.Cycles.Features()...)
	}
	if r.ECG != nil {
		out = append(out, r.ECG.Features()...)
	}
	for _, w := range r.Joint {
		out = append(out, w.Features()...)
	}
	return out
}

// Compute runs every family on in.
func (a *Assembler) Compute(in Input) Result {
	rr := in.RRIntervals
	if rr.Empty() && !in.RPeaks.Empty() {
		derived, err := cycle.ExtractRRIntervals(in.RPeaks)
		if err != nil {
			a.logger.Debug("RR interval extraction failed", zap.Error(err))
		} else {
			rr = derived
		}
	}

	return Result{
		RIP:    a.ComputeRIP(in.Peaks, in.Valleys, rr),
		Cycles: a.ComputeCycleFeatures(in.Peaks, in.Valleys),
		ECG:    a.ComputeECG(rr),
		Joint:  a.ComputeJointWindows(in.Peaks, in.Valleys, rr),
	}
}
