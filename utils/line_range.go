package utils

import "math"

// LineRangeHelper computes index ranges over a dataset of fixed line count
type LineRangeHelper struct {
	LineCount int64
}

func NewLineRangeHelper(lineCount int64) *LineRangeHelper {
	return &LineRangeHelper{
		LineCount: lineCount,
	}
}

// IsInDataset checks if the index is a line of the dataset
func (helper *LineRangeHelper) IsInDataset(index int64) bool {
	return index >= 0 && index < helper.LineCount
}

// GetLastIndexInDataset returns end clipped to the last line of the dataset
func (helper *LineRangeHelper) GetLastIndexInDataset(end int64) int64 {
	if end >= helper.LineCount {
		return helper.LineCount - 1
	}
	return end
}

// GetFirstAndLastIndexInDataset returns the part of [start, end] that lies in the dataset.
// ok is false when nothing overlaps.
func (helper *LineRangeHelper) GetFirstAndLastIndexInDataset(start int64, end int64) (int64, int64, bool) {
	first := start
	if first < 0 {
		first = 0
	}

	if !helper.IsInDataset(first) || end < first {
		return first, end, false
	}

	return first, helper.GetLastIndexInDataset(end), true
}

// GetRangeLength returns the number of indices in [start, end], saturated at math.MaxInt64
func GetRangeLength(start int64, end int64) int64 {
	if end < start {
		return 0
	}

	distance := uint64(end) - uint64(start)
	if distance >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(distance) + 1
}
