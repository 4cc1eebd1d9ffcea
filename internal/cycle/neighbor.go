package cycle

import (
	"fmt"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// neighborOffsets are the positions averaged by NeighborRatio.
var neighborOffsets = [...]int{-2, -1, 1, 2}

// DeltaPrevious returns x[i] - x[i-1] for every cycle, with 0 for the first one.
func DeltaPrevious(seq datastream.Sequence) datastream.Sequence {
	b := seq.Derive("delta_previous_" + seq.Name()).Grow(seq.Len())
	for i := 0; i < seq.Len(); i++ {
		delta := 0.0
		if i > 0 {
			delta = seq.At(i).Sample - seq.At(i-1).Sample
		}
		b.Append(datastream.NewPoint(seq.At(i).Start, delta))
	}
	return b.Build()
}

// DeltaNext returns x[i] - x[i+1] for every cycle, with 0 for the last one.
func DeltaNext(seq datastream.Sequence) datastream.Sequence {
	b := seq.Derive("delta_next_" + seq.Name()).Grow(seq.Len())
	for i := 0; i < seq.Len(); i++ {
		delta := 0.0
		if i < seq.Len()-1 {
			delta = seq.At(i).Sample - seq.At(i+1).Sample
		}
		b.Append(datastream.NewPoint(seq.At(i).Start, delta))
	}
	return b.Build()
}

// NeighborRatio returns x[i] divided by the average of its neighbours at i-2, i-1, i+1
// and i+2. Neighbours outside the sequence are skipped and the average is taken over
// the ones that exist, so edge cycles divide by 2 or 3 rather than 4.
func NeighborRatio(seq datastream.Sequence) (datastream.Sequence, error) {
	n := seq.Len()
	b := seq.Derive("neighbor_ratio_" + seq.Name()).Grow(n)
	for i := 0; i < n; i++ {
		sum, count := 0.0, 0
		for _, off := range neighborOffsets {
			j := i + off
			if j < 0 || j >= n {
				continue
			}
			sum += seq.At(j).Sample
			count++
		}
		if count == 0 {
			return datastream.Sequence{}, fmt.Errorf("%w: %s has a single cycle", ErrInsufficientNeighbor, seq.Name())
		}
		ratio, err := divide(seq.At(i).Sample, sum/float64(count))
		if err != nil {
			return datastream.Sequence{}, fmt.Errorf("%s cycle %d: %w", seq.Name(), i, err)
		}
		b.Append(datastream.NewPoint(seq.At(i).Start, ratio))
	}
	return b.Build(), nil
}
