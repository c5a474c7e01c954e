package commons

import "time"

const (
	ServicePortDefault            int    = 12030
	DataFilePathDefault           string = "mock_data.txt"
	DataSizeTotalDefault          int64  = 1024 * 1024 * 200 // 200MB
	LineSizeEstimateDefault       int64  = 20
	RangeLinesMaxDefault          int64  = 10 * 1024 * 1024
	LogFilePathPrefixDefault      string = "/tmp/mockdata_pool"
	StatLogIntervalDefault               = 10 * time.Second
	ProfileServicePortDefault     int    = 12031
	PrometheusExporterPortDefault int    = 12032

	// LineAnnotationSuffix is appended once to every line stored in the cache
	LineAnnotationSuffix string = " processed"
)

// PopulationPolicy decides how much of the dataset a cache miss regenerates
type PopulationPolicy string

const (
	// PopulationPolicyFull regenerates the whole dataset on the first miss in a range
	PopulationPolicyFull PopulationPolicy = "full"
	// PopulationPolicyRange regenerates only the missing lines of the requested range
	PopulationPolicyRange PopulationPolicy = "range"

	PopulationPolicyDefault PopulationPolicy = PopulationPolicyFull
)

// IsValid checks if the policy is known
func (policy PopulationPolicy) IsValid() bool {
	switch policy {
	case PopulationPolicyFull, PopulationPolicyRange:
		return true
	default:
		return false
	}
}
