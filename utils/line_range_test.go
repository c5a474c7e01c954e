package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRangeHelper_GetFirstAndLastIndexInDataset(t *testing.T) {
	helper := NewLineRangeHelper(10)

	tests := []struct {
		name       string
		start, end int64
		first      int64
		last       int64
		ok         bool
	}{
		{"inside", 2, 5, 2, 5, true},
		{"end beyond", 8, 20, 8, 9, true},
		{"start beyond", 10, 20, 10, 9, false},
		{"negative start", -3, 1, 0, 1, true},
		{"single", 9, 9, 9, 9, true},
		{"negative end", -3, -1, 0, -1, false},
		{"end at max int64", 5, math.MaxInt64, 5, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, ok := helper.GetFirstAndLastIndexInDataset(tt.start, tt.end)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.first, first)
				assert.Equal(t, tt.last, last)
			}
		})
	}
}

func TestLineRangeHelper_IsInDataset(t *testing.T) {
	helper := NewLineRangeHelper(3)

	assert.True(t, helper.IsInDataset(0))
	assert.True(t, helper.IsInDataset(2))
	assert.False(t, helper.IsInDataset(3))
	assert.False(t, helper.IsInDataset(-1))
}

func TestGetRangeLength(t *testing.T) {
	assert.Equal(t, int64(1), GetRangeLength(4, 4))
	assert.Equal(t, int64(11), GetRangeLength(0, 10))
	assert.Equal(t, int64(0), GetRangeLength(5, 2))

	// saturates instead of overflowing
	assert.Equal(t, int64(math.MaxInt64), GetRangeLength(0, math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), GetRangeLength(1, math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), GetRangeLength(math.MinInt64, math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64-1), GetRangeLength(2, math.MaxInt64))
}

func TestParseInt64OrDefault(t *testing.T) {
	v, err := ParseInt64OrDefault("", 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), v)

	v, err = ParseInt64OrDefault(" -7 ", 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	_, err = ParseInt64OrDefault("abc", 0)
	assert.Error(t, err)
}
