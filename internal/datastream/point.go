package datastream

import (
	"fmt"
	"time"
)

// Point is a single timestamped sample. End is the zero time for instantaneous points
// (sensor samples, detected events) and set for values that describe an interval,
// such as a statistic computed over a window.
type Point struct {
	Start  time.Time
	End    time.Time
	Sample float64
}

// NewPoint returns an instantaneous point.
func NewPoint(start time.Time, sample float64) Point {
	return Point{Start: start, Sample: sample}
}

// NewIntervalPoint returns a point valid over [start, end).
func NewIntervalPoint(start, end time.Time, sample float64) Point {
	return Point{Start: start, End: end, Sample: sample}
}

// HasEnd reports whether the point spans an interval.
func (p Point) HasEnd() bool {
	return !p.End.IsZero()
}

func (p Point) String() string {
	if p.HasEnd() {
		return fmt.Sprintf("[%s, %s) %g", p.Start.Format(time.RFC3339Nano), p.End.Format(time.RFC3339Nano), p.Sample)
	}
	return fmt.Sprintf("%s %g", p.Start.Format(time.RFC3339Nano), p.Sample)
}
