package message

import (
	"encoding/json"
	"fmt"
	"time"
	_ "time/tzdata" // segment timezones must load on hosts without a zoneinfo database
)

// ParseSegment decodes one JSON segment and converts its event lists into sequences.
// Timestamps are presented in the segment's timezone, or fallback when it names none.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseSegment(data []byte, fallback *time.Location) (*Decoded, error) {
	var seg Segment
	if err := json.Unmarshal(data, &seg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return seg.Decode(fallback)
}

// Decode validates the segment and builds its feature input.
func (s Segment) Decode(fallback *time.Location) (*Decoded, error) {
	if s.SegmentID == "" {
		return nil, ErrMissingSegmentID
	}

	loc := fallback
	if loc == nil {
		loc = time.UTC
	}
	if s.Timezone != "" {
		l, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
		}
		loc = l
	}

	d := &Decoded{SubjectID: s.SubjectID, SegmentID: s.SegmentID}
	var err error
	if d.Input.Peaks, err = toSequence("peaks", s.Peaks, loc); err != nil {
		return nil, err
	}
	if d.Input.Valleys, err = toSequence("valleys", s.Valleys, loc); err != nil {
		return nil, err
	}
	if d.Input.RRIntervals, err = toSequence("rr_interval", s.RRIntervals, loc); err != nil {
		return nil, err
	}
	if d.Input.RPeaks, err = toSequence("r_peaks", s.RPeaks, loc); err != nil {
		return nil, err
	}
	return d, nil
}

// EncodeRow serialises an output row as JSON.
func EncodeRow(row FeatureRow) ([]byte, error) {
	return json.Marshal(row)
}
