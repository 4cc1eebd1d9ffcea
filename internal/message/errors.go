package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON segment")
	ErrMissingSegmentID    = errors.New("segment has no segment_id")
	ErrInvalidTimezone     = errors.New("segment timezone cannot be loaded")
	ErrInvalidTimestamp    = errors.New("event timestamp cannot be parsed")
	ErrUnorderedEvents     = errors.New("segment events are not time-ordered")
)
