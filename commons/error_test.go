package commons

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

func TestErrors_Is(t *testing.T) {
	invalidRange := NewInvalidRangeError(5, 2)
	assert.True(t, IsInvalidRangeError(invalidRange))
	assert.False(t, IsOutOfBoundsError(invalidRange))

	outOfBounds := xerrors.Errorf("serving: %w", NewOutOfBoundsError(100, 100))
	assert.True(t, IsOutOfBoundsError(outOfBounds))
	assert.False(t, IsPopulationFailureError(outOfBounds))

	tooLarge := NewRangeTooLargeError(0, 100, 10)
	assert.True(t, IsRangeTooLargeError(tooLarge))
	assert.False(t, IsInvalidRangeError(tooLarge))
}

func TestPopulationFailureError(t *testing.T) {
	cause := errors.New("generator broke")

	err := NewPopulationFailureError(0, 9, 0, cause)
	assert.True(t, IsPopulationFailureError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "generator broke")

	err = NewPopulationFailureError(0, 9, 3, nil)
	assert.Contains(t, err.Error(), "3 lines missing")
	assert.Nil(t, errors.Unwrap(err))
}
