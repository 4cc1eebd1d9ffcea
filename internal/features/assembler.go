package features

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/stats"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

// Feature families.
const (
	FamilyRIP    = "rip"
	FamilyCycle  = "rip_cycle"
	FamilyECG    = "ecg"
	FamilyJoint  = "rip_ecg_window"
	suffixQDev   = "_qdev"
	suffixMean   = "_mean"
	suffixMedian = "_median"
	suffixP80    = "_p80"
)

// Feature is one named output sequence.
type Feature struct {
	Family string
	Name   string
	Series datastream.Sequence
}

// Assembler runs cycle extraction, windowing and reduction per feature family.
// Every Compute method returns nil instead of failing when its input is missing,
// empty or malformed, so that one bad segment never stops a batch; the reason is
// logged at debug level.
type Assembler struct {
	params window.Params
	logger *zap.Logger
}

// NewAssembler validates the window parameters once for all calls.
func NewAssembler(params window.Params, logger *zap.Logger) (*Assembler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{params: params, logger: logger}, nil
}

func (a *Assembler) Params() window.Params { return a.params }

// unavailable logs why a family produced no result.
func (a *Assembler) unavailable(family, reason string, fields ...zap.Field) {
	a.logger.Debug("Feature family unavailable",
		append([]zap.Field{zap.String("family", family), zap.String("reason", reason)}, fields...)...,
	)
}

// SummarySeries holds the four windowed statistics of one cycle family.
type SummarySeries struct {
	QuantileDeviation datastream.Sequence
	Mean              datastream.Sequence
	Median            datastream.Sequence
	P80               datastream.Sequence
}

func (s SummarySeries) features(family, name string) []Feature {
	return []Feature{
		{Family: family, Name: name + suffixQDev, Series: s.QuantileDeviation},
		{Family: family, Name: name + suffixMean, Series: s.Mean},
		{Family: family, Name: name + suffixMedian, Series: s.Median},
		{Family: family, Name: name + suffixP80, Series: s.P80},
	}
}

// summarize slides seq and reduces every emitted window. An empty seq yields empty series.
func (a *Assembler) summarize(seq datastream.Sequence) (SummarySeries, error) {
	qdev := seq.Derive(seq.Name() + suffixQDev)
	mean := seq.Derive(seq.Name() + suffixMean)
	median := seq.Derive(seq.Name() + suffixMedian)
	p80 := seq.Derive(seq.Name() + suffixP80)

	bins, err := window.Slide(seq, a.params)
	if err != nil && !errors.Is(err, window.ErrEmptyInput) {
		return SummarySeries{}, fmt.Errorf("window %s: %w", seq.Name(), err)
	}
	for _, bin := range bins {
		s, err := stats.ReduceSequence(bin.Points)
		if err != nil {
			return SummarySeries{}, fmt.Errorf("reduce %s %s: %w", seq.Name(), bin.Interval, err)
		}
		start, end := bin.Interval.Start, bin.Interval.End
		qdev.Append(datastream.NewIntervalPoint(start, end, s.QuantileDeviation))
		mean.Append(datastream.NewIntervalPoint(start, end, s.Mean))
		median.Append(datastream.NewIntervalPoint(start, end, s.Median))
		p80.Append(datastream.NewIntervalPoint(start, end, s.P80))
	}
	return SummarySeries{
		QuantileDeviation: qdev.Build(),
		Mean:              mean.Build(),
		Median:            median.Build(),
		P80:               p80.Build(),
	}, nil
}
