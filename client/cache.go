package client

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RangeCache keeps recently fetched line ranges on the client side
type RangeCache struct {
	cacheTimeout   time.Duration
	cleanupTimeout time.Duration
	rangeCache     *gocache.Cache
}

// NewRangeCache creates a new RangeCache
func NewRangeCache(cacheTimeout time.Duration, cleanup time.Duration) *RangeCache {
	return &RangeCache{
		cacheTimeout:   cacheTimeout,
		cleanupTimeout: cleanup,
		rangeCache:     gocache.New(cacheTimeout, cleanup),
	}
}

func makeRangeCacheKey(start int64, end int64) string {
	return fmt.Sprintf("%d:%d", start, end)
}

// AddRangeCache adds a range cache
func (cache *RangeCache) AddRangeCache(response *RangeResponse) {
	cache.rangeCache.Set(makeRangeCacheKey(response.Start, response.End), response, 0)
}

// RemoveRangeCache removes a range cache
func (cache *RangeCache) RemoveRangeCache(start int64, end int64) {
	cache.rangeCache.Delete(makeRangeCacheKey(start, end))
}

// GetRangeCache retrieves a range cache
func (cache *RangeCache) GetRangeCache(start int64, end int64) *RangeResponse {
	data, exist := cache.rangeCache.Get(makeRangeCacheKey(start, end))
	if exist {
		if response, ok := data.(*RangeResponse); ok {
			return response
		}
	}
	return nil
}

// ClearRangeCache clears all range caches
func (cache *RangeCache) ClearRangeCache() {
	cache.rangeCache.Flush()
}

// GetSize returns the number of cached ranges
func (cache *RangeCache) GetSize() int {
	return cache.rangeCache.ItemCount()
}
