package service

import (
	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service/io"
	"github.com/cyverse/mockdata-pool/utils"
	log "github.com/sirupsen/logrus"
)

// RangeResult is an ordered sequence of lines for a requested range.
// Lines that could not be resolved are empty strings and their indices are listed in Unresolved.
type RangeResult struct {
	Start      int64
	End        int64
	Lines      []string
	Unresolved []int64

	// PopulationError is the failure of the population pass that preceded the read, if any
	PopulationError error
}

// IsPartial returns true if any line of the range was served as a placeholder
func (result *RangeResult) IsPartial() bool {
	return len(result.Unresolved) > 0
}

// RangeServer serves line ranges out of the cache, populating it as needed
type RangeServer struct {
	lineCount   int64
	linesMax    int64
	populator   *CachePopulator
	cacheReader *io.CacheReader
}

// NewRangeServer creates a new RangeServer that serves at most linesMax lines per range
func NewRangeServer(lineCount int64, linesMax int64, cache io.LineCache, populator *CachePopulator) *RangeServer {
	return &RangeServer{
		lineCount:   lineCount,
		linesMax:    linesMax,
		populator:   populator,
		cacheReader: io.NewCacheReader(cache),
	}
}

// Validate checks bounds of the range
func (server *RangeServer) Validate(start int64, end int64) error {
	if start < 0 || end < start {
		return commons.NewInvalidRangeError(start, end)
	}

	if start >= server.lineCount {
		return commons.NewOutOfBoundsError(start, server.lineCount)
	}

	if utils.GetRangeLength(start, end) > server.linesMax {
		return commons.NewRangeTooLargeError(start, end, server.linesMax)
	}

	return nil
}

// Serve returns lines [start, end].
// end is not clipped to the dataset; indices beyond it are served as placeholders.
func (server *RangeServer) Serve(start int64, end int64) (*RangeResult, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "RangeServer",
		"function": "Serve",
	})

	err := server.Validate(start, end)
	if err != nil {
		return nil, err
	}

	populationErr := server.populator.Ensure(start, end)
	if populationErr != nil {
		logger.WithError(populationErr).Warnf("serving range [%d, %d] with degraded cache", start, end)
	}

	read := server.cacheReader.ReadRange(start, end)

	promCounterForCacheHits.Add(float64(read.Hits))
	promCounterForCacheMisses.Add(float64(read.Misses))
	promCounterForLinesServed.Add(float64(len(read.Lines)))

	if len(read.Unresolved) > 0 {
		promCounterForPartialRanges.Inc()
	}

	return &RangeResult{
		Start:           start,
		End:             end,
		Lines:           read.Lines,
		Unresolved:      read.Unresolved,
		PopulationError: populationErr,
	}, nil
}
