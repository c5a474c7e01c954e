package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promCounterForHTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockdata_pool_http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"endpoint", "code"})

	promCounterForCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_cache_hit_total",
		Help: "The total number of lines read from cache",
	})

	promCounterForCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_cache_miss_total",
		Help: "The total number of lines missing in cache at read time",
	})

	promCounterForCacheMissTriggers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_cache_miss_trigger_total",
		Help: "The total number of range requests that triggered a population pass",
	})

	promCounterForCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_cache_eviction_total",
		Help: "The total number of lines evicted from cache",
	})

	promCounterForFullPopulationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_full_population_pass_total",
		Help: "The total number of full dataset population passes",
	})

	promCounterForRangePopulationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_range_population_pass_total",
		Help: "The total number of range population passes",
	})

	promCounterForPopulationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_population_failure_total",
		Help: "The total number of failed population passes",
	})

	promCounterForLinesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_lines_generated_total",
		Help: "The total number of lines generated into cache",
	})

	promCounterForLinesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_lines_served_total",
		Help: "The total number of lines served, placeholders included",
	})

	promCounterForPartialRanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_partial_range_total",
		Help: "The total number of ranges served with unresolved lines",
	})

	promCounterForDataFileCreations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockdata_pool_data_file_creation_total",
		Help: "The total number of data files created",
	})

	promGaugeForCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mockdata_pool_cache_entries",
		Help: "The number of lines in cache",
	})

	promGaugeForCacheCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mockdata_pool_cache_capacity",
		Help: "The max number of lines in cache",
	})
)

// onCacheEvicted is called by the line cache while it is locked
func onCacheEvicted(index int64) {
	promCounterForCacheEvictions.Inc()
}

// CollectPrometheusMetrics updates gauges
func (server *Server) CollectPrometheusMetrics() {
	promGaugeForCacheEntries.Set(float64(server.cache.Size()))
	promGaugeForCacheCapacity.Set(float64(server.cache.Capacity()))
}
