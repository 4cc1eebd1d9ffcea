package window

import (
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// stream walks a time-ordered sequence alongside a monotonically advancing cursor.
// lo is the first point strictly after the current window start, hi the first point
// at or after the window end. Both indices only move forward, which keeps a full
// aggregator pass linear in the input plus the size of emitted bins.
type stream struct {
	seq datastream.Sequence
	lo  int
	hi  int
}

func newStream(seq datastream.Sequence) *stream {
	return &stream{seq: seq}
}

// collect positions the stream on the open interval (start, end) and reports whether
// any point falls inside it.
func (s *stream) collect(start, end time.Time) bool {
	n := s.seq.Len()
	for s.lo < n && !s.seq.At(s.lo).Start.After(start) {
		s.lo++
	}
	if s.hi < s.lo {
		s.hi = s.lo
	}
	for s.hi < n && s.seq.At(s.hi).Start.Before(end) {
		s.hi++
	}
	return s.hi > s.lo
}

// window returns the points found by the last collect.
func (s *stream) window() datastream.Sequence {
	sub, _ := s.seq.Slice(s.lo, s.hi)
	return sub
}

// span is the time covered by the points found by the last collect.
func (s *stream) span() time.Duration {
	if s.hi <= s.lo {
		return 0
	}
	return s.seq.At(s.hi - 1).Start.Sub(s.seq.At(s.lo).Start)
}

// nextAfter returns the first point timestamp strictly after t.
func (s *stream) nextAfter(t time.Time) (time.Time, bool) {
	n := s.seq.Len()
	for i := s.hi; i < n; i++ {
		if ts := s.seq.At(i).Start; ts.After(t) {
			return ts, true
		}
	}
	return time.Time{}, false
}
