package io

import (
	"sync/atomic"

	"github.com/cyverse/mockdata-pool/service/dataset"
	lrucache "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// EvictionHandler is called when a line is evicted, while the cache is locked
type EvictionHandler func(index int64)

// LRULineCache is an in-memory LineCache with least-recently-used eviction
type LRULineCache struct {
	capacity        int
	cache           *lrucache.Cache
	evictionHandler EvictionHandler
	evictions       uint64
}

// NewLRULineCache creates a new LRULineCache
func NewLRULineCache(capacity int, evictionHandler EvictionHandler) (*LRULineCache, error) {
	if capacity <= 0 {
		return nil, xerrors.Errorf("cache capacity must be positive, got %d", capacity)
	}

	lineCache := &LRULineCache{
		capacity:        capacity,
		cache:           nil,
		evictionHandler: evictionHandler,
	}

	lruCache, err := lrucache.NewWithEvict(capacity, lineCache.onEvicted)
	if err != nil {
		return nil, xerrors.Errorf("failed to create lru cache with capacity %d: %w", capacity, err)
	}

	lineCache.cache = lruCache
	return lineCache, nil
}

// Release releases all cached lines
func (cache *LRULineCache) Release() {
	logger := log.WithFields(log.Fields{
		"package":  "io",
		"struct":   "LRULineCache",
		"function": "Release",
	})

	logger.Infof("Deleting all %d cached lines", cache.cache.Len())
	cache.cache.Purge()
}

// Capacity returns the max number of lines in cache
func (cache *LRULineCache) Capacity() int {
	return cache.capacity
}

// Size returns the number of lines in cache
func (cache *LRULineCache) Size() int {
	return cache.cache.Len()
}

// GetEvictions returns the number of lines evicted so far
func (cache *LRULineCache) GetEvictions() uint64 {
	return atomic.LoadUint64(&cache.evictions)
}

// Get returns the line at the index and marks it as recently used
func (cache *LRULineCache) Get(index int64) (dataset.Line, bool) {
	if entry, ok := cache.cache.Get(index); ok {
		if line, ok := entry.(dataset.Line); ok {
			return line, true
		}
	}

	return dataset.Line{}, false
}

// Put adds the line, evicting the least recently used one when full
func (cache *LRULineCache) Put(index int64, line dataset.Line) {
	cache.cache.Add(index, line)
}

// Contains checks if the index is cached without updating recency
func (cache *LRULineCache) Contains(index int64) bool {
	return cache.cache.Contains(index)
}

// Keys returns cached indices from the oldest to the newest
func (cache *LRULineCache) Keys() []int64 {
	keys := []int64{}
	for _, key := range cache.cache.Keys() {
		if index, ok := key.(int64); ok {
			keys = append(keys, index)
		}
	}
	return keys
}

// Purge deletes all lines, each purged line is reported to the eviction handler
func (cache *LRULineCache) Purge() {
	cache.cache.Purge()
}

func (cache *LRULineCache) onEvicted(key interface{}, _ interface{}) {
	atomic.AddUint64(&cache.evictions, 1)

	if cache.evictionHandler == nil {
		return
	}

	if index, ok := key.(int64); ok {
		cache.evictionHandler(index)
	}
}

var _ LineCache = (*LRULineCache)(nil)
