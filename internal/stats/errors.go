package stats

import "errors"

var (
	ErrEmptyWindow       = errors.New("cannot reduce an empty window")
	ErrInvalidPercentile = errors.New("percentile must be within [0, 100]")
)
