package pipeline

import (
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/message"
)

// SegmentResult holds every feature row computed for one segment.
type SegmentResult struct {
	SubjectID string
	SegmentID string
	Rows      []message.FeatureRow
	Families  []string // families that produced at least one row, in output order
	Duration  time.Duration
}

// Empty reports whether the segment produced no features at all.
func (r SegmentResult) Empty() bool {
	return len(r.Rows) == 0
}

// familiesOf lists the distinct families of rows in first-seen order.
func familiesOf(rows []message.FeatureRow) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Family] {
			seen[r.Family] = true
			out = append(out, r.Family)
		}
	}
	return out
}
