package io

import (
	"github.com/cyverse/mockdata-pool/service/dataset"
)

// LineCache is a bounded cache of generated lines, keyed by line index
type LineCache interface {
	Release()

	// Capacity returns the max number of lines the cache can hold
	Capacity() int
	// Size returns the current number of lines in the cache
	Size() int

	// Get returns the line and refreshes its recency
	Get(index int64) (dataset.Line, bool)
	// Put inserts or updates the line, evicting the least recently used line if the cache is full
	Put(index int64, line dataset.Line)
	// Contains checks existence without touching recency
	Contains(index int64) bool

	// Keys returns cached indices from the oldest to the newest
	Keys() []int64
	Purge()
}
