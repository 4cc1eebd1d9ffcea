package features

import (
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/cycle"
	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// CycleFeatureSet holds the per-breath features, one point per cycle keyed by its
// opening valley.
type CycleFeatureSet struct {
	Base cycle.BreathCycles

	DeltaPreviousInspiration datastream.Sequence
	DeltaPreviousExpiration  datastream.Sequence
	DeltaPreviousRespiration datastream.Sequence
	DeltaPreviousStretch     datastream.Sequence
	DeltaNextInspiration     datastream.Sequence
	DeltaNextExpiration      datastream.Sequence
	DeltaNextRespiration     datastream.Sequence
	DeltaNextStretch         datastream.Sequence
	NeighborRatioExpiration  datastream.Sequence
	NeighborRatioStretch     datastream.Sequence
}

func (s *CycleFeatureSet) Features() []Feature {
	seqs := []datastream.Sequence{
		s.Base.Inspiration, s.Base.Expiration, s.Base.Respiration, s.Base.IERatio, s.Base.Stretch,
		s.DeltaPreviousInspiration, s.DeltaPreviousExpiration, s.DeltaPreviousRespiration, s.DeltaPreviousStretch,
		s.DeltaNextInspiration, s.DeltaNextExpiration, s.DeltaNextRespiration, s.DeltaNextStretch,
		s.NeighborRatioExpiration, s.NeighborRatioStretch,
	}
	out := make([]Feature, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, Feature{Family: FamilyCycle, Name: seq.Name(), Series: seq})
	}
	return out
}

// ComputeCycleFeatures extracts breath cycles and their neighbour-relative features.
// A neighbour ratio that cannot be formed (a single cycle, or neighbours averaging zero)
// leaves that series empty; the rest of the set is still returned.
func (a *Assembler) ComputeCycleFeatures(peaks, valleys datastream.Sequence) *CycleFeatureSet {
	if peaks.Empty() || valleys.Empty() {
		a.unavailable(FamilyCycle, "missing peaks or valleys",
			zap.Int("peaks", peaks.Len()), zap.Int("valleys", valleys.Len()))
		return nil
	}
	base, err := cycle.ExtractBreathCycles(peaks, valleys)
	if err != nil {
		a.unavailable(FamilyCycle, "breath cycle extraction failed", zap.Error(err))
		return nil
	}

	set := &CycleFeatureSet{
		Base:                     base,
		DeltaPreviousInspiration: cycle.DeltaPrevious(base.Inspiration),
		DeltaPreviousExpiration:  cycle.DeltaPrevious(base.Expiration),
		DeltaPreviousRespiration: cycle.DeltaPrevious(base.Respiration),
		DeltaPreviousStretch:     cycle.DeltaPrevious(base.Stretch),
		DeltaNextInspiration:     cycle.DeltaNext(base.Inspiration),
		DeltaNextExpiration:      cycle.DeltaNext(base.Expiration),
		DeltaNextRespiration:     cycle.DeltaNext(base.Respiration),
		DeltaNextStretch:         cycle.DeltaNext(base.Stretch),
	}
	set.NeighborRatioExpiration = a.neighborRatio(base.Expiration)
	set.NeighborRatioStretch = a.neighborRatio(base.Stretch)
	return set
}

func (a *Assembler) neighborRatio(seq datastream.Sequence) datastream.Sequence {
	ratio, err := cycle.NeighborRatio(seq)
	if err != nil {
		a.logger.Debug("Neighbor ratio skipped", zap.String("series", seq.Name()), zap.Error(err))
		return seq.Derive("neighbor_ratio_" + seq.Name()).Build()
	}
	return ratio
}
