package cycle

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

const (
	Inspiration = "inspiration_duration"
	Expiration  = "expiration_duration"
	Respiration = "respiration_duration"
	IERatio     = "inspiration_expiration_ratio"
	Stretch     = "stretch"
)

// Cycle is one breath: a valley, the following peak and the next valley.
type Cycle struct {
	Valley     datastream.Point
	Peak       datastream.Point
	NextValley datastream.Point
}

// BreathCycles holds the per-cycle base sequences. Every point is keyed by the start
// time of the cycle's opening valley, so all five sequences share the same timestamps.
type BreathCycles struct {
	Cycles      []Cycle
	Inspiration datastream.Sequence // peak - valley, seconds
	Expiration  datastream.Sequence // next valley - peak, seconds
	Respiration datastream.Sequence // next valley - valley, seconds
	IERatio     datastream.Sequence // inspiration / expiration
	Stretch     datastream.Sequence // |peak - next valley| amplitude
}

func (b BreathCycles) Len() int { return len(b.Cycles) }

// ExtractBreathCycles pairs valley i with peak i and valley i+1 for every i up to the
// second-to-last valley (or the last available peak). Peaks at or before the first valley
// close a breath that opened before the data and are skipped. Peaks and valleys must
// alternate: each paired peak has to fall strictly between its two valleys, otherwise
// ErrMisalignedCycle is returned. A single valley yields no cycles.
func ExtractBreathCycles(peaks, valleys datastream.Sequence) (BreathCycles, error) {
	if peaks.Empty() || valleys.Empty() {
		return BreathCycles{}, ErrEmptyInput
	}

	sources := []string{peaks.Name(), valleys.Name()}
	peaks, err := dropLeadingPeaks(peaks, valleys.First().Start)
	if err != nil {
		return BreathCycles{}, err
	}

	n := min(valleys.Len()-1, peaks.Len())
	insp := datastream.NewBuilder(Inspiration, sources...).Grow(n)
	exp := datastream.NewBuilder(Expiration, sources...).Grow(n)
	resp := datastream.NewBuilder(Respiration, sources...).Grow(n)
	ie := datastream.NewBuilder(IERatio, sources...).Grow(n)
	stretch := datastream.NewBuilder(Stretch, sources...).Grow(n)
	cycles := make([]Cycle, 0, n)

	for i := 0; i < n; i++ {
		c := Cycle{Valley: valleys.At(i), Peak: peaks.At(i), NextValley: valleys.At(i + 1)}
		if !c.Peak.Start.After(c.Valley.Start) || !c.Peak.Start.Before(c.NextValley.Start) {
			return BreathCycles{}, fmt.Errorf("%w: cycle %d peak at %s", ErrMisalignedCycle, i, c.Peak.Start)
		}

		inspiration := c.Peak.Start.Sub(c.Valley.Start).Seconds()
		expiration := c.NextValley.Start.Sub(c.Peak.Start).Seconds()
		ratio, err := divide(inspiration, expiration)
		if err != nil {
			return BreathCycles{}, fmt.Errorf("cycle %d inspiration/expiration: %w", i, err)
		}

		key := c.Valley.Start
		insp.Append(datastream.NewPoint(key, inspiration))
		exp.Append(datastream.NewPoint(key, expiration))
		resp.Append(datastream.NewPoint(key, c.NextValley.Start.Sub(c.Valley.Start).Seconds()))
		ie.Append(datastream.NewPoint(key, ratio))
		stretch.Append(datastream.NewPoint(key, math.Abs(c.Peak.Sample-c.NextValley.Sample)))
		cycles = append(cycles, c)
	}

	return BreathCycles{
		Cycles:      cycles,
		Inspiration: insp.Build(),
		Expiration:  exp.Build(),
		Respiration: resp.Build(),
		IERatio:     ie.Build(),
		Stretch:     stretch.Build(),
	}, nil
}

// dropLeadingPeaks returns peaks without the ones at or before first.
func dropLeadingPeaks(peaks datastream.Sequence, first time.Time) (datastream.Sequence, error) {
	k := sort.Search(peaks.Len(), func(i int) bool { return peaks.At(i).Start.After(first) })
	return peaks.Slice(k, peaks.Len())
}

func divide(num, den float64) (float64, error) {
	if den == 0 {
		return 0, ErrDivisionByZero
	}
	return num / den, nil
}
