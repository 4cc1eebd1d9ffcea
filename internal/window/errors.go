package window

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid window argument")
	ErrEmptyInput      = errors.New("input sequence is empty")
)
