package message

import (
	"fmt"
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
	"github.com/sanspareilsmyn/physiolens/internal/features"
)

// Event is one detected peak, valley, RR interval or R-peak on the wire.
type Event struct {
	T string  `json:"t"`
	V float64 `json:"v"`
}

// Segment is one recording segment of one subject as published by the detectors.
type Segment struct {
	SubjectID   string  `json:"subject_id"`
	SegmentID   string  `json:"segment_id"`
	Timezone    string  `json:"timezone,omitempty"`
	Peaks       []Event `json:"peaks,omitempty"`
	Valleys     []Event `json:"valleys,omitempty"`
	RRIntervals []Event `json:"rr_intervals,omitempty"`
	RPeaks      []Event `json:"r_peaks,omitempty"`
}

// Decoded is a segment converted to feature input.
type Decoded struct {
	SubjectID string
	SegmentID string
	Input     features.Input
}

// FeatureRow is one output value: a feature of one segment over one window. Per-cycle
// features have WindowEnd equal to WindowStart.
type FeatureRow struct {
	SubjectID   string    `json:"subject_id"`
	SegmentID   string    `json:"segment_id"`
	Family      string    `json:"family"`
	Feature     string    `json:"feature"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Value       float64   `json:"value"`
}

// Key partitions rows of one subject together.
func (r FeatureRow) Key() string {
	return r.SubjectID
}

// Rows flattens computed features into output rows.
func Rows(subjectID, segmentID string, feats []features.Feature) []FeatureRow {
	var rows []FeatureRow
	for _, f := range feats {
		for i := 0; i < f.Series.Len(); i++ {
			p := f.Series.At(i)
			end := p.Start
			if p.HasEnd() {
				end = p.End
			}
			rows = append(rows, FeatureRow{
				SubjectID:   subjectID,
				SegmentID:   segmentID,
				Family:      f.Family,
				Feature:     f.Name,
				WindowStart: p.Start,
				WindowEnd:   end,
				Value:       p.Sample,
			})
		}
	}
	return rows
}

// timestampFormats are tried in order; zone-less formats are read in the segment's location.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, format := range timestampFormats {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

func toSequence(name string, events []Event, loc *time.Location) (datastream.Sequence, error) {
	points := make([]datastream.Point, len(events))
	for i, e := range events {
		ts, err := parseTimestamp(e.T, loc)
		if err != nil {
			return datastream.Sequence{}, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		points[i] = datastream.NewPoint(ts, e.V)
	}
	seq, err := datastream.New(name, points)
	if err != nil {
		return datastream.Sequence{}, fmt.Errorf("%w: %w", ErrUnorderedEvents, err)
	}
	return seq, nil
}

// Snippet returns a truncated view of a raw payload for logging.
func Snippet(data []byte, maxLength int) string {
	if maxLength <= 0 {
		return "..."
	}
	if len(data) > maxLength {
		return string(data[:maxLength]) + "..."
	}
	return string(data)
}
