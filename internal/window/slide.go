package window

import (
	"fmt"
	"sort"
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// Slide cuts a time-ordered sequence into windows of p.Size whose starts lie on the
// p.Offset epoch grid, in strictly increasing key order.
//
// A window collects the points strictly inside (start, start+Size); boundary points
// belong to no window. This is a known limitation kept for numeric compatibility with
// previously computed features. An empty window makes the cursor jump to the grid line
// after the next available point instead of stepping across the gap one offset at a time.
// A non-empty window is emitted only if its points span more than Offset/2.
//
// Slide fails with ErrEmptyInput on an empty sequence and ErrInvalidArgument on bad params.
func Slide(seq datastream.Sequence, p Params) ([]Bin, error) {
	bins, _, err := slide(seq, p)
	return bins, err
}

// Tumble is Slide with non-overlapping windows (offset equal to size).
func Tumble(seq datastream.Sequence, size time.Duration, loc *time.Location) ([]Bin, error) {
	return Slide(seq, Params{Size: size, Offset: size, Location: loc})
}

// slide also returns the number of loop iterations, which tests use to check that
// gaps are skipped rather than walked.
func slide(seq datastream.Sequence, p Params) ([]Bin, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	if seq.Empty() {
		return nil, 0, fmt.Errorf("%w: %s", ErrEmptyInput, seq.Name())
	}

	cursor, err := Align(seq.First().Start, p.Offset, false, p.Location)
	if err != nil {
		return nil, 0, err
	}
	final := seq.Last().Start
	s := newStream(seq)

	var (
		bins  []Bin
		steps int
	)
	for cursor.Before(final) {
		steps++
		end := cursor.Add(p.Size)

		if !s.collect(cursor, end) {
			next, ok := s.nextAfter(end)
			if !ok {
				break
			}
			if cursor, err = Align(next, p.Offset, true, p.Location); err != nil {
				return nil, steps, err
			}
			continue
		}

		key := Interval{Start: cursor, End: end}
		cursor = cursor.Add(p.Offset)
		if s.span() > p.minSpan() {
			bins = append(bins, Bin{Interval: key, Points: s.window()})
		}
	}
	return bins, steps, nil
}

// Restrict returns the points of seq strictly inside iv, using the same open-interval
// rule as the aggregator.
func Restrict(seq datastream.Sequence, iv Interval) datastream.Sequence {
	n := seq.Len()
	lo := sort.Search(n, func(i int) bool { return seq.At(i).Start.After(iv.Start) })
	hi := sort.Search(n, func(i int) bool { return !seq.At(i).Start.Before(iv.End) })
	if hi < lo {
		hi = lo
	}
	sub, _ := seq.Slice(lo, hi)
	return sub
}
