package io

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/cyverse/mockdata-pool/service/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLine(index int64) dataset.Line {
	return dataset.Line{
		Index: index,
		Text:  dataset.Annotate(string(dataset.AppendLineText(nil, index, float64(index)))),
	}
}

func TestLRULineCache_InvalidCapacity(t *testing.T) {
	_, err := NewLRULineCache(0, nil)
	assert.Error(t, err)

	_, err = NewLRULineCache(-1, nil)
	assert.Error(t, err)
}

func TestLRULineCache_PutGet(t *testing.T) {
	cache, err := NewLRULineCache(4, nil)
	require.NoError(t, err)

	_, ok := cache.Get(1)
	assert.False(t, ok)
	assert.False(t, cache.Contains(1))

	cache.Put(1, testLine(1))
	line, ok := cache.Get(1)
	assert.True(t, ok)
	assert.Equal(t, testLine(1), line)
	assert.True(t, cache.Contains(1))
	assert.Equal(t, 1, cache.Size())
	assert.Equal(t, 4, cache.Capacity())

	// update keeps size
	updated := testLine(1)
	updated.Text = "updated"
	cache.Put(1, updated)
	line, ok = cache.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "updated", line.Text)
	assert.Equal(t, 1, cache.Size())
}

func TestLRULineCache_EvictsLeastRecentlyUsed(t *testing.T) {
	evicted := []int64{}
	cache, err := NewLRULineCache(3, func(index int64) {
		evicted = append(evicted, index)
	})
	require.NoError(t, err)

	cache.Put(0, testLine(0))
	cache.Put(1, testLine(1))
	cache.Put(2, testLine(2))

	// read refreshes 0, so 1 is the least recently used
	_, ok := cache.Get(0)
	require.True(t, ok)

	cache.Put(3, testLine(3))
	assert.Equal(t, []int64{1}, evicted)
	assert.False(t, cache.Contains(1))
	assert.Equal(t, []int64{2, 0, 3}, cache.Keys())

	// write refreshes 2
	cache.Put(2, testLine(2))
	cache.Put(4, testLine(4))
	assert.Equal(t, []int64{1, 0}, evicted)
	assert.Equal(t, []int64{3, 2, 4}, cache.Keys())
	assert.Equal(t, uint64(2), cache.GetEvictions())
}

func TestLRULineCache_FirstInsertedEvictedFirst(t *testing.T) {
	cache, err := NewLRULineCache(2, nil)
	require.NoError(t, err)

	for i := int64(0); i < 10; i++ {
		cache.Put(i, testLine(i))
	}

	assert.Equal(t, []int64{8, 9}, cache.Keys())
}

func TestLRULineCache_ContainsDoesNotRefresh(t *testing.T) {
	cache, err := NewLRULineCache(2, nil)
	require.NoError(t, err)

	cache.Put(0, testLine(0))
	cache.Put(1, testLine(1))
	assert.True(t, cache.Contains(0))

	cache.Put(2, testLine(2))
	assert.False(t, cache.Contains(0))
	assert.True(t, cache.Contains(1))
}

func TestLRULineCache_CapacityInvariant(t *testing.T) {
	const capacity = 16
	cache, err := NewLRULineCache(capacity, nil)
	require.NoError(t, err)

	wg := sync.WaitGroup{}
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 1000; i++ {
				index := r.Int63n(100)
				if r.Intn(2) == 0 {
					cache.Put(index, testLine(index))
				} else {
					cache.Get(index)
				}
				assert.LessOrEqual(t, cache.Size(), capacity)
			}
		}(int64(w))
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Size(), capacity)
	for _, index := range cache.Keys() {
		line, ok := cache.Get(index)
		assert.True(t, ok)
		assert.Equal(t, testLine(index), line)
	}
}

func TestLRULineCache_Purge(t *testing.T) {
	cache, err := NewLRULineCache(4, nil)
	require.NoError(t, err)

	cache.Put(0, testLine(0))
	cache.Put(1, testLine(1))
	cache.Purge()

	assert.Equal(t, 0, cache.Size())
	assert.Empty(t, cache.Keys())
}
