package cycle

import "errors"

var (
	ErrEmptyInput           = errors.New("event sequence is empty")
	ErrMisalignedCycle      = errors.New("peak does not lie between consecutive valleys")
	ErrDivisionByZero       = errors.New("division by zero in cycle ratio")
	ErrInsufficientNeighbor = errors.New("cycle has no neighbours to average")
)
