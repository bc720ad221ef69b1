package trajectory

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput reports a sample with a missing or non-finite coordinate.
	ErrMalformedInput = errors.New("malformed trajectory input")

	// ErrInvalidDiscontinuityIndex reports an index outside [1, N-1].
	ErrInvalidDiscontinuityIndex = errors.New("invalid discontinuity index")

	// ErrInvalidThreshold reports a threshold that is not a positive finite number.
	ErrInvalidThreshold = errors.New("threshold must be a positive finite number")
)

// MalformedInputError locates a bad input row. Row and Column are 1-based.
type MalformedInputError struct {
	Row    int
	Column int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed trajectory input at row %d column %d: %s", e.Row, e.Column, e.Reason)
}

// Is reports ErrMalformedInput so callers can match with errors.Is.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// InvalidIndexError carries the rejected index and the trajectory length.
type InvalidIndexError struct {
	Index int
	Len   int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid discontinuity index %d for trajectory of length %d (valid range [1, %d])",
		e.Index, e.Len, e.Len-1)
}

// Is reports ErrInvalidDiscontinuityIndex so callers can match with errors.Is.
func (e *InvalidIndexError) Is(target error) bool {
	return target == ErrInvalidDiscontinuityIndex
}
