package window

import (
	"fmt"
	"time"
)

// SlideJoint windows peaks, valleys and RR intervals together on one epoch grid.
//
// The cursor runs from the latest first timestamp to the earliest last timestamp of the
// three streams, so no window reads outside any stream's coverage. A window is emitted
// only when every role has at least one point inside it and the RR-interval points span
// more than Offset/2, the same threshold Slide uses. When any role is empty the cursor
// jumps to the grid line after the earliest next point across all roles.
func SlideJoint(in JointInput, p Params) ([]JointBin, error) {
	bins, _, err := slideJoint(in, p)
	return bins, err
}

func slideJoint(in JointInput, p Params) ([]JointBin, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	for _, role := range []struct {
		name  string
		empty bool
	}{
		{"peaks", in.Peaks.Empty()},
		{"valleys", in.Valleys.Empty()},
		{"rr_intervals", in.RRIntervals.Empty()},
	} {
		if role.empty {
			return nil, 0, fmt.Errorf("%w: %s", ErrEmptyInput, role.name)
		}
	}

	peaks, valleys, rr := newStream(in.Peaks), newStream(in.Valleys), newStream(in.RRIntervals)
	streams := []*stream{peaks, valleys, rr}

	start := latest(in.Peaks.First().Start, in.Valleys.First().Start, in.RRIntervals.First().Start)
	final := earliest(in.Peaks.Last().Start, in.Valleys.Last().Start, in.RRIntervals.Last().Start)

	cursor, err := Align(start, p.Offset, false, p.Location)
	if err != nil {
		return nil, 0, err
	}

	var (
		bins  []JointBin
		steps int
	)
	for cursor.Before(final) {
		steps++
		end := cursor.Add(p.Size)

		complete := true
		for _, s := range streams {
			// every stream must be positioned, so no short-circuit here
			if !s.collect(cursor, end) {
				complete = false
			}
		}

		if !complete {
			var (
				next  time.Time
				found bool
			)
			for _, s := range streams {
				if ts, ok := s.nextAfter(end); ok && (!found || ts.Before(next)) {
					next, found = ts, true
				}
			}
			if !found {
				break
			}
			if cursor, err = Align(next, p.Offset, true, p.Location); err != nil {
				return nil, steps, err
			}
			continue
		}

		key := Interval{Start: cursor, End: end}
		cursor = cursor.Add(p.Offset)
		if rr.span() > p.minSpan() {
			bins = append(bins, JointBin{
				Interval:    key,
				Peaks:       peaks.window(),
				Valleys:     valleys.window(),
				RRIntervals: rr.window(),
			})
		}
	}
	return bins, steps, nil
}

func latest(ts ...time.Time) time.Time {
	out := ts[0]
	for _, t := range ts[1:] {
		if t.After(out) {
			out = t
		}
	}
	return out
}

func earliest(ts ...time.Time) time.Time {
	out := ts[0]
	for _, t := range ts[1:] {
		if t.Before(out) {
			out = t
		}
	}
	return out
}
