package window

import (
	"fmt"
	"time"
)

// Align maps ts onto the epoch grid with the given period: floor(ts/period)*period.
// When after is true the result is advanced by one period, so it is always strictly
// later than ts, including when ts already lies on the grid.
//
// Arithmetic is done on integer Unix microseconds; the sub-microsecond part of ts is
// discarded and period must be a positive whole number of microseconds.
// The result is expressed in loc, or in ts's own location when loc is nil. The location
// only affects presentation, never the instant.
func Align(ts time.Time, period time.Duration, after bool, loc *time.Location) (time.Time, error) {
	if period <= 0 || period%time.Microsecond != 0 {
		return time.Time{}, fmt.Errorf("%w: alignment period %s", ErrInvalidArgument, period)
	}
	if loc == nil {
		loc = ts.Location()
	}

	p := period.Microseconds()
	us := ts.UnixMicro()
	q := us / p
	if us%p != 0 && us < 0 {
		q--
	}
	aligned := q * p
	if after {
		aligned += p
	}
	return time.UnixMicro(aligned).In(loc), nil
}
