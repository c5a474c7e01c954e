package io

import (
	"github.com/cyverse/mockdata-pool/utils"
	log "github.com/sirupsen/logrus"
)

const (
	readPreallocMax int64 = 1024 * 1024
)

// RangeRead is the outcome of reading a line range through cache
type RangeRead struct {
	Lines      []string
	Unresolved []int64
	Hits       int64
	Misses     int64
}

// CacheReader helps read line ranges through cache
type CacheReader struct {
	Cache LineCache
}

// NewCacheReader create a new CacheReader
func NewCacheReader(cache LineCache) *CacheReader {
	return &CacheReader{
		Cache: cache,
	}
}

// ReadRange reads lines [start, end] in order.
// A line missing in cache is returned as an empty string and its index is listed in Unresolved.
func (reader *CacheReader) ReadRange(start int64, end int64) *RangeRead {
	logger := log.WithFields(log.Fields{
		"package":  "io",
		"struct":   "CacheReader",
		"function": "ReadRange",
	})

	length := utils.GetRangeLength(start, end)
	if length > readPreallocMax {
		length = readPreallocMax
	}

	read := &RangeRead{
		Lines:      make([]string, 0, length),
		Unresolved: []int64{},
	}

	if end < start {
		return read
	}

	// i must not step past end, end may be math.MaxInt64
	for i := start; ; i++ {
		line, ok := reader.Cache.Get(i)
		if ok {
			read.Lines = append(read.Lines, line.Text)
			read.Hits++
		} else {
			read.Lines = append(read.Lines, "")
			read.Unresolved = append(read.Unresolved, i)
			read.Misses++
		}

		if i == end {
			break
		}
	}

	logger.Debugf("Read range [%d, %d] through cache - %d hits, %d misses", start, end, read.Hits, read.Misses)
	return read
}
