package service

import (
	"sync"

	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service/dataset"
	"github.com/cyverse/mockdata-pool/service/io"
	"github.com/cyverse/mockdata-pool/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// LineGenerator generates lines to be stored in cache
type LineGenerator interface {
	GetLineCount() int64
	GenerateAnnotated(index int64) (dataset.Line, error)
}

// CachePopulator fills the line cache.
// Every population pass runs under the lifecycle lock, which is shared with data file creation.
type CachePopulator struct {
	generator   LineGenerator
	cache       io.LineCache
	policy      commons.PopulationPolicy
	rangeHelper *utils.LineRangeHelper
	lock        *sync.Mutex
}

// NewCachePopulator creates a new CachePopulator
func NewCachePopulator(generator LineGenerator, cache io.LineCache, policy commons.PopulationPolicy, lock *sync.Mutex) *CachePopulator {
	return &CachePopulator{
		generator:   generator,
		cache:       cache,
		policy:      policy,
		rangeHelper: utils.NewLineRangeHelper(generator.GetLineCount()),
		lock:        lock,
	}
}

// GetPolicy returns the population policy
func (populator *CachePopulator) GetPolicy() commons.PopulationPolicy {
	return populator.policy
}

// IsPopulated returns true if the cache has any line
func (populator *CachePopulator) IsPopulated() bool {
	return populator.cache.Size() > 0
}

// Ensure makes every dataset line in [start, end] present in cache.
// Indices beyond the dataset are never generated and are not counted as failures.
// With the full policy, a single missing line triggers regeneration of the whole dataset;
// lines of the range may still be missing afterwards if the cache is smaller than the dataset.
func (populator *CachePopulator) Ensure(start int64, end int64) error {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "CachePopulator",
		"function": "Ensure",
	})

	first, last, ok := populator.rangeHelper.GetFirstAndLastIndexInDataset(start, end)
	if !ok {
		return nil
	}

	if _, found := populator.findMissing(first, last); !found {
		logger.Debugf("Data for range [%d, %d] already exists in cache", start, end)
		return nil
	}

	populator.lock.Lock()
	defer populator.lock.Unlock()

	// another pass may have filled the range while waiting for the lock
	missingIndex, found := populator.findMissing(first, last)
	if !found {
		return nil
	}

	promCounterForCacheMissTriggers.Inc()
	logger.Debugf("Line %d is missing in cache, running %s population pass", missingIndex, populator.policy)

	var err error
	switch populator.policy {
	case commons.PopulationPolicyRange:
		err = populator.populateRangeLocked(missingIndex, last)
	default:
		err = populator.populateAllLocked()
	}

	if err != nil {
		promCounterForPopulationFailures.Inc()
		logger.WithError(err).Errorf("failed to populate cache for range [%d, %d]", start, end)
		return commons.NewPopulationFailureError(start, end, 0, err)
	}

	missing := populator.countMissing(first, last)
	if missing > 0 {
		promCounterForPopulationFailures.Inc()
		logger.Warnf("%d lines of range [%d, %d] are missing after population, cache capacity %d", missing, start, end, populator.cache.Capacity())
		return commons.NewPopulationFailureError(start, end, missing, nil)
	}

	return nil
}

// PopulateAll fills the cache with the whole dataset unless the cache already has lines.
// Returns true if a population pass ran.
func (populator *CachePopulator) PopulateAll() (bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "CachePopulator",
		"function": "PopulateAll",
	})

	if populator.IsPopulated() {
		return false, nil
	}

	populator.lock.Lock()
	defer populator.lock.Unlock()

	if populator.IsPopulated() {
		return false, nil
	}

	err := populator.populateAllLocked()
	if err != nil {
		promCounterForPopulationFailures.Inc()
		logger.WithError(err).Error("failed to populate cache")
		return true, err
	}

	return true, nil
}

// populateAllLocked regenerates every line of the dataset, caller must hold the lock
func (populator *CachePopulator) populateAllLocked() error {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "CachePopulator",
		"function": "populateAllLocked",
	})

	lineCount := populator.generator.GetLineCount()
	logger.Infof("Populating cache with all %d lines", lineCount)

	promCounterForFullPopulationPasses.Inc()
	return populator.generateLocked(0, lineCount-1, false)
}

// populateRangeLocked generates missing lines in [start, end], caller must hold the lock
func (populator *CachePopulator) populateRangeLocked(start int64, end int64) error {
	promCounterForRangePopulationPasses.Inc()
	return populator.generateLocked(start, end, true)
}

func (populator *CachePopulator) generateLocked(start int64, end int64, skipCached bool) error {
	generated := int64(0)
	defer func() {
		promCounterForLinesGenerated.Add(float64(generated))
	}()

	for i := start; i <= end; i++ {
		if skipCached && populator.cache.Contains(i) {
			continue
		}

		line, err := populator.generator.GenerateAnnotated(i)
		if err != nil {
			return xerrors.Errorf("failed to generate line %d: %w", i, err)
		}

		populator.cache.Put(i, line)
		generated++
	}

	return nil
}

// findMissing returns the first index in [start, end] not in cache
func (populator *CachePopulator) findMissing(start int64, end int64) (int64, bool) {
	for i := start; i <= end; i++ {
		if !populator.cache.Contains(i) {
			return i, true
		}
	}
	return -1, false
}

func (populator *CachePopulator) countMissing(start int64, end int64) int64 {
	missing := int64(0)
	for i := start; i <= end; i++ {
		if !populator.cache.Contains(i) {
			missing++
		}
	}
	return missing
}
