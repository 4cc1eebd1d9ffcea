package window

import (
	"fmt"
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// Params configures one aggregator run.
type Params struct {
	Size     time.Duration
	Offset   time.Duration
	Location *time.Location // presentation location of emitted keys; nil keeps the input's
}

// Validate checks that both durations are positive whole microseconds.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: window size %s must be positive", ErrInvalidArgument, p.Size)
	}
	if p.Offset <= 0 || p.Offset%time.Microsecond != 0 {
		return fmt.Errorf("%w: window offset %s must be a positive number of microseconds", ErrInvalidArgument, p.Offset)
	}
	return nil
}

// minSpan is the density gate: a bin is emitted only if its points span strictly more
// than half the window offset. The same threshold applies to single and joint windowing.
func (p Params) minSpan() time.Duration {
	return p.Offset / 2
}

// Interval is a half-open [Start, End) window key. Membership, however, is open at both
// ends: see Contains.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies strictly inside the interval. Points exactly on a
// boundary belong to no window and are dropped by the aggregator.
func (iv Interval) Contains(t time.Time) bool {
	return t.After(iv.Start) && t.Before(iv.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339Nano), iv.End.Format(time.RFC3339Nano))
}

// Bin is one emitted window: its key and the contiguous slice of input points inside it.
type Bin struct {
	Interval Interval
	Points   datastream.Sequence
}

// JointBin is one emitted multi-stream window.
type JointBin struct {
	Interval    Interval
	Peaks       datastream.Sequence
	Valleys     datastream.Sequence
	RRIntervals datastream.Sequence
}

// JointInput holds the three role-labelled streams windowed together.
type JointInput struct {
	Peaks       datastream.Sequence
	Valleys     datastream.Sequence
	RRIntervals datastream.Sequence
}
