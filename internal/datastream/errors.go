package datastream

import "errors"

var (
	ErrUnordered     = errors.New("points are not ordered by start time")
	ErrIndexOutRange = errors.New("sequence index out of range")
)
