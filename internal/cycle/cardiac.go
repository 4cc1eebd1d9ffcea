package cycle

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

const (
	RRInterval = "rr_interval"
	RSA        = "rsa"
)

// ExtractRRIntervals returns the gaps between consecutive R-peaks in seconds. Each
// interval is stamped with the R-peak that closes it.
func ExtractRRIntervals(rPeaks datastream.Sequence) (datastream.Sequence, error) {
	if rPeaks.Empty() {
		return datastream.Sequence{}, ErrEmptyInput
	}
	b := rPeaks.Derive(RRInterval).Grow(rPeaks.Len() - 1)
	for i := 1; i < rPeaks.Len(); i++ {
		prev, cur := rPeaks.At(i-1), rPeaks.At(i)
		b.Append(datastream.NewPoint(cur.Start, cur.Start.Sub(prev.Start).Seconds()))
	}
	return b.Build(), nil
}

// RSAInCycle returns the respiratory sinus arrhythmia amplitude of one breath: the
// spread max(rr) - min(rr) of the RR intervals strictly inside (start, end).
// ok is false when no RR interval falls inside the cycle.
func RSAInCycle(start, end time.Time, rr datastream.Sequence) (rsa float64, ok bool) {
	inside := window.Restrict(rr, window.Interval{Start: start, End: end})
	if inside.Empty() {
		return 0, false
	}
	samples := inside.Samples()
	return floats.Max(samples) - floats.Min(samples), true
}

// ExtractRSA computes RSAInCycle for every breath cycle, keyed by the opening valley.
// Cycles without RR coverage are left out.
func ExtractRSA(cycles []Cycle, rr datastream.Sequence) datastream.Sequence {
	b := datastream.NewBuilder(RSA, rr.Name()).Grow(len(cycles))
	for _, c := range cycles {
		if v, ok := RSAInCycle(c.Valley.Start, c.NextValley.Start, rr); ok {
			b.Append(datastream.NewPoint(c.Valley.Start, v))
		}
	}
	return b.Build()
}
