package commons

import (
	"errors"
	"fmt"
)

// InvalidRangeError contains invalid range error information
type InvalidRangeError struct {
	Start int64
	End   int64
}

// NewInvalidRangeError creates an error for invalid range error
func NewInvalidRangeError(start int64, end int64) error {
	return &InvalidRangeError{
		Start: start,
		End:   end,
	}
}

// Error returns error message
func (err *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d]: 'end' should be greater than or equal to 'start' and both should be non-negative", err.Start, err.End)
}

// Is tests type of error
func (err *InvalidRangeError) Is(other error) bool {
	_, ok := other.(*InvalidRangeError)
	return ok
}

// ToString stringifies the object
func (err *InvalidRangeError) ToString() string {
	return "<InvalidRangeError>"
}

// IsInvalidRangeError evaluates if the given error is invalid range error
func IsInvalidRangeError(err error) bool {
	return errors.Is(err, &InvalidRangeError{})
}

// OutOfBoundsError contains out of bounds error information
type OutOfBoundsError struct {
	Index     int64
	LineCount int64
}

// NewOutOfBoundsError creates an error for out of bounds error
func NewOutOfBoundsError(index int64, lineCount int64) error {
	return &OutOfBoundsError{
		Index:     index,
		LineCount: lineCount,
	}
}

// Error returns error message
func (err *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d is out of bounds, dataset has %d lines", err.Index, err.LineCount)
}

// Is tests type of error
func (err *OutOfBoundsError) Is(other error) bool {
	_, ok := other.(*OutOfBoundsError)
	return ok
}

// ToString stringifies the object
func (err *OutOfBoundsError) ToString() string {
	return "<OutOfBoundsError>"
}

// IsOutOfBoundsError evaluates if the given error is out of bounds error
func IsOutOfBoundsError(err error) bool {
	return errors.Is(err, &OutOfBoundsError{})
}

// RangeTooLargeError contains information about a range longer than the service serves at once
type RangeTooLargeError struct {
	Start    int64
	End      int64
	LinesMax int64
}

// NewRangeTooLargeError creates an error for range too large error
func NewRangeTooLargeError(start int64, end int64, linesMax int64) error {
	return &RangeTooLargeError{
		Start:    start,
		End:      end,
		LinesMax: linesMax,
	}
}

// Error returns error message
func (err *RangeTooLargeError) Error() string {
	return fmt.Sprintf("range [%d, %d] is too large, at most %d lines are served at once", err.Start, err.End, err.LinesMax)
}

// Is tests type of error
func (err *RangeTooLargeError) Is(other error) bool {
	_, ok := other.(*RangeTooLargeError)
	return ok
}

// ToString stringifies the object
func (err *RangeTooLargeError) ToString() string {
	return "<RangeTooLargeError>"
}

// IsRangeTooLargeError evaluates if the given error is range too large error
func IsRangeTooLargeError(err error) bool {
	return errors.Is(err, &RangeTooLargeError{})
}

// PopulationFailureError contains cache population failure information
type PopulationFailureError struct {
	Start   int64
	End     int64
	Missing int64
	Cause   error
}

// NewPopulationFailureError creates an error for cache population failure
func NewPopulationFailureError(start int64, end int64, missing int64, cause error) error {
	return &PopulationFailureError{
		Start:   start,
		End:     end,
		Missing: missing,
		Cause:   cause,
	}
}

// Error returns error message
func (err *PopulationFailureError) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("failed to populate cache for range [%d, %d]: %v", err.Start, err.End, err.Cause)
	}
	return fmt.Sprintf("failed to populate cache for range [%d, %d]: %d lines missing after population", err.Start, err.End, err.Missing)
}

// Is tests type of error
func (err *PopulationFailureError) Is(other error) bool {
	_, ok := other.(*PopulationFailureError)
	return ok
}

// Unwrap returns the cause
func (err *PopulationFailureError) Unwrap() error {
	return err.Cause
}

// ToString stringifies the object
func (err *PopulationFailureError) ToString() string {
	return "<PopulationFailureError>"
}

// IsPopulationFailureError evaluates if the given error is population failure error
func IsPopulationFailureError(err error) bool {
	return errors.Is(err, &PopulationFailureError{})
}
