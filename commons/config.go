package commons

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	irodsfs_common_utils "github.com/cyverse/irodsfs-common/utils"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/xid"
	"golang.org/x/xerrors"
	yaml "gopkg.in/yaml.v2"
)

const (
	// EnvPrefix is the prefix of environmental variables read by NewConfigFromENV
	EnvPrefix string = "MOCKDATA"
)

var (
	instanceID string
)

// getInstanceID returns instance ID
func getInstanceID() string {
	if len(instanceID) == 0 {
		instanceID = xid.New().String()
	}

	return instanceID
}

// GetDefaultLogFilePath returns default log file path
func GetDefaultLogFilePath() string {
	return fmt.Sprintf("%s_%s.log", LogFilePathPrefixDefault, getInstanceID())
}

// Config holds the parameters list which can be configured
type Config struct {
	ServicePort int `envconfig:"SERVICE_PORT" yaml:"service_port"`

	DataFilePath     string           `envconfig:"DATA_FILE_PATH" yaml:"data_file_path"`
	DataSizeTotal    int64            `envconfig:"DATA_SIZE_TOTAL" yaml:"data_size_total"`
	LineSizeEstimate int64            `envconfig:"LINE_SIZE_ESTIMATE" yaml:"line_size_estimate"`
	CacheEntriesMax  int64            `envconfig:"CACHE_ENTRIES_MAX" yaml:"cache_entries_max,omitempty"`
	PopulationPolicy PopulationPolicy `envconfig:"POPULATION_POLICY" yaml:"population_policy"`
	RangeLinesMax    int64            `envconfig:"RANGE_LINES_MAX" yaml:"range_lines_max,omitempty"`

	StatLogInterval irodsfs_common_utils.Duration `ignored:"true" yaml:"stat_log_interval,omitempty"`

	LogPath string `envconfig:"LOG_PATH" yaml:"log_path,omitempty"`
	Debug   bool   `envconfig:"DEBUG" yaml:"debug,omitempty"`

	Profile                bool `envconfig:"PROFILE" yaml:"profile,omitempty"`
	ProfileServicePort     int  `envconfig:"PROFILE_SERVICE_PORT" yaml:"profile_service_port,omitempty"`
	PrometheusExporterPort int  `envconfig:"PROMETHEUS_EXPORTER_PORT" yaml:"prometheus_exporter_port,omitempty"`

	InstanceID string `ignored:"true" yaml:"instanceid,omitempty"`
}

// DatasetConfig describes the shape of the generated dataset, derived from Config
type DatasetConfig struct {
	DataSizeTotal    int64
	LineSizeEstimate int64
	LineCount        int64
}

// Step returns the value increment between two consecutive lines
func (dataset DatasetConfig) Step() float64 {
	if dataset.LineCount <= 0 {
		return 0
	}
	return 1.0 / float64(dataset.LineCount)
}

// NewDefaultConfig creates DefaultConfig
func NewDefaultConfig() *Config {
	return &Config{
		ServicePort: ServicePortDefault,

		DataFilePath:     DataFilePathDefault,
		DataSizeTotal:    DataSizeTotalDefault,
		LineSizeEstimate: LineSizeEstimateDefault,
		CacheEntriesMax:  0,
		PopulationPolicy: PopulationPolicyDefault,
		RangeLinesMax:    RangeLinesMaxDefault,

		StatLogInterval: irodsfs_common_utils.Duration(StatLogIntervalDefault),

		LogPath: "",
		Debug:   false,

		Profile:                false,
		ProfileServicePort:     ProfileServicePortDefault,
		PrometheusExporterPort: PrometheusExporterPortDefault,

		InstanceID: getInstanceID(),
	}
}

// NewConfigFromYAML creates Config from YAML
func NewConfigFromYAML(yamlBytes []byte) (*Config, error) {
	config := NewDefaultConfig()

	err := yaml.Unmarshal(yamlBytes, config)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal YAML: %w", err)
	}

	return config, nil
}

// NewConfigFromYAMLFile creates Config from a YAML file
func NewConfigFromYAMLFile(yamlPath string) (*Config, error) {
	absPath, err := filepath.Abs(yamlPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to get absolute path of %q: %w", yamlPath, err)
	}

	yamlBytes, err := os.ReadFile(absPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config file %q: %w", absPath, err)
	}

	return NewConfigFromYAML(yamlBytes)
}

// OverrideFromENV overwrites config fields with environmental variables that are set
func (config *Config) OverrideFromENV() error {
	err := envconfig.Process(EnvPrefix, config)
	if err != nil {
		return xerrors.Errorf("failed to read environmental variables: %w", err)
	}
	return nil
}

// GetStatLogInterval returns the interval of periodic stat logging
func (config *Config) GetStatLogInterval() time.Duration {
	return time.Duration(config.StatLogInterval)
}

// GetLogFilePath returns log file path
func (config *Config) GetLogFilePath() string {
	if config.LogPath == "-" {
		return ""
	}
	return config.LogPath
}

// GetDatasetConfig derives the dataset shape
func (config *Config) GetDatasetConfig() DatasetConfig {
	lineCount := int64(0)
	if config.LineSizeEstimate > 0 {
		lineCount = config.DataSizeTotal / config.LineSizeEstimate
	}

	return DatasetConfig{
		DataSizeTotal:    config.DataSizeTotal,
		LineSizeEstimate: config.LineSizeEstimate,
		LineCount:        lineCount,
	}
}

// GetCacheEntriesMax returns the max number of lines kept in cache
// zero means the cache is sized by the total data size, like the dataset file
func (config *Config) GetCacheEntriesMax() int64 {
	if config.CacheEntriesMax > 0 {
		return config.CacheEntriesMax
	}
	return config.DataSizeTotal
}

// Validate validates configuration
func (config *Config) Validate() error {
	if config.ServicePort <= 0 {
		return xerrors.Errorf("service port must be given")
	}

	if len(config.DataFilePath) == 0 {
		return xerrors.Errorf("data file path must be given")
	}

	if config.DataSizeTotal <= 0 {
		return xerrors.Errorf("data size total must be positive, got %d", config.DataSizeTotal)
	}

	if config.LineSizeEstimate <= 0 {
		return xerrors.Errorf("line size estimate must be positive, got %d", config.LineSizeEstimate)
	}

	if config.GetDatasetConfig().LineCount <= 0 {
		return xerrors.Errorf("data size total %d is smaller than a line (%d bytes)", config.DataSizeTotal, config.LineSizeEstimate)
	}

	if config.CacheEntriesMax < 0 {
		return xerrors.Errorf("cache entries max must not be negative, got %d", config.CacheEntriesMax)
	}

	if config.RangeLinesMax <= 0 {
		return xerrors.Errorf("range lines max must be positive, got %d", config.RangeLinesMax)
	}

	if !config.PopulationPolicy.IsValid() {
		return xerrors.Errorf("unknown population policy %q", config.PopulationPolicy)
	}

	if config.Profile && config.ProfileServicePort <= 0 {
		return xerrors.Errorf("profile service port must be given")
	}

	return nil
}
