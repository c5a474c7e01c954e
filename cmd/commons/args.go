package commons

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cyverse/mockdata-pool/commons"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func SetCommonFlags(command *cobra.Command) {
	command.Flags().BoolP("version", "v", false, "Print version")
	command.Flags().BoolP("help", "h", false, "Print help")
	command.Flags().BoolP("debug", "d", false, "Enable debug mode")
	command.Flags().BoolP("profile", "", false, "Enable profiling")

	command.Flags().StringP("config", "", "", "Set config file (yaml)")
	command.Flags().IntP("port", "", commons.ServicePortDefault, "Set service port")
	command.Flags().StringP("data_file", "", commons.DataFilePathDefault, "Set data file path")
	command.Flags().Int64P("data_size", "", commons.DataSizeTotalDefault, "Set total data size in bytes")
	command.Flags().Int64P("cache_entries_max", "", 0, "Set max number of lines in cache (0 to use total data size)")
	command.Flags().StringP("population_policy", "", string(commons.PopulationPolicyDefault), "Set cache population policy (full or range)")
	command.Flags().Int64P("range_lines_max", "", commons.RangeLinesMaxDefault, "Set max number of lines served per request")
	command.Flags().StringP("log", "", "", "Set log file path (- for stderr only)")

	command.Flags().IntP("profile_port", "", commons.ProfileServicePortDefault, "Set profile service port")
	command.Flags().IntP("prometheus_exporter_port", "", commons.PrometheusExporterPortDefault, "Set prometheus exporter port")
}

// ProcessCommonFlags builds Config from defaults, a YAML file, environmental variables and flags, in order of priority
func ProcessCommonFlags(command *cobra.Command) (*commons.Config, io.WriteCloser, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "commons",
		"function": "ProcessCommonFlags",
	})

	debug := getBoolFlag(command, "debug")
	profile := getBoolFlag(command, "profile")

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if getBoolFlag(command, "help") {
		PrintHelp(command)
		return nil, nil, false, nil // stop here
	}

	if getBoolFlag(command, "version") {
		PrintVersion(command)
		return nil, nil, false, nil // stop here
	}

	readConfig := false
	var config *commons.Config

	configFlag := command.Flags().Lookup("config")
	if configFlag != nil {
		configPath := configFlag.Value.String()
		if len(configPath) > 0 {
			serverConfig, err := commons.NewConfigFromYAMLFile(configPath)
			if err != nil {
				logger.Error(err)
				return nil, nil, false, err // stop here
			}

			// overwrite config
			config = serverConfig
			readConfig = true
		}
	}

	// default config
	if !readConfig {
		config = commons.NewDefaultConfig()
	}

	err := config.OverrideFromENV()
	if err != nil {
		logger.Error(err)
		return nil, nil, false, err // stop here
	}

	// prioritize command-line flag over config files
	if debug {
		log.SetLevel(log.DebugLevel)
		config.Debug = true
	}

	if profile {
		config.Profile = true
	}

	if config.Debug {
		log.SetLevel(log.DebugLevel)
	}

	logFlag := command.Flags().Lookup("log")
	if isFlagChanged(logFlag) {
		config.LogPath = logFlag.Value.String()
	}

	var logWriter io.WriteCloser
	logFilePath := config.GetLogFilePath()
	if len(logFilePath) == 0 {
		log.SetOutput(os.Stderr)
	} else {
		logWriter = getLogWriter(logFilePath)

		// use multi output - to output to file and stdout
		mw := io.MultiWriter(os.Stderr, logWriter)
		log.SetOutput(mw)

		logger.Infof("Logging to %s", logFilePath)
	}

	portFlag := command.Flags().Lookup("port")
	if isFlagChanged(portFlag) {
		port, err := strconv.ParseInt(portFlag.Value.String(), 10, 32)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int")
			return nil, logWriter, false, err // stop here
		}

		config.ServicePort = int(port)
	}

	dataFileFlag := command.Flags().Lookup("data_file")
	if isFlagChanged(dataFileFlag) {
		config.DataFilePath = dataFileFlag.Value.String()
	}

	dataSizeFlag := command.Flags().Lookup("data_size")
	if isFlagChanged(dataSizeFlag) {
		dataSize, err := strconv.ParseInt(dataSizeFlag.Value.String(), 10, 64)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int64")
			return nil, logWriter, false, err // stop here
		}

		config.DataSizeTotal = dataSize
	}

	cacheEntriesMaxFlag := command.Flags().Lookup("cache_entries_max")
	if isFlagChanged(cacheEntriesMaxFlag) {
		cacheEntriesMax, err := strconv.ParseInt(cacheEntriesMaxFlag.Value.String(), 10, 64)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int64")
			return nil, logWriter, false, err // stop here
		}

		config.CacheEntriesMax = cacheEntriesMax
	}

	populationPolicyFlag := command.Flags().Lookup("population_policy")
	if isFlagChanged(populationPolicyFlag) {
		config.PopulationPolicy = commons.PopulationPolicy(populationPolicyFlag.Value.String())
	}

	rangeLinesMaxFlag := command.Flags().Lookup("range_lines_max")
	if isFlagChanged(rangeLinesMaxFlag) {
		rangeLinesMax, err := strconv.ParseInt(rangeLinesMaxFlag.Value.String(), 10, 64)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int64")
			return nil, logWriter, false, err // stop here
		}

		config.RangeLinesMax = rangeLinesMax
	}

	profilePortFlag := command.Flags().Lookup("profile_port")
	if isFlagChanged(profilePortFlag) {
		profilePort, err := strconv.ParseInt(profilePortFlag.Value.String(), 10, 32)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int")
			return nil, logWriter, false, err // stop here
		}

		config.ProfileServicePort = int(profilePort)
	}

	prometheusExporterPortFlag := command.Flags().Lookup("prometheus_exporter_port")
	if isFlagChanged(prometheusExporterPortFlag) {
		prometheusExporterPort, err := strconv.ParseInt(prometheusExporterPortFlag.Value.String(), 10, 32)
		if err != nil {
			logger.WithError(err).Errorf("failed to convert input to int")
			return nil, logWriter, false, err // stop here
		}

		config.PrometheusExporterPort = int(prometheusExporterPort)
	}

	err = config.Validate()
	if err != nil {
		logger.Error(err)
		return nil, logWriter, false, err // stop here
	}

	return config, logWriter, true, nil // continue
}

func PrintVersion(command *cobra.Command) error {
	info, err := commons.GetVersionJSON()
	if err != nil {
		return err
	}

	fmt.Println(info)
	return nil
}

func PrintHelp(command *cobra.Command) error {
	return command.Usage()
}

func getBoolFlag(command *cobra.Command, name string) bool {
	flag := command.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	value, err := strconv.ParseBool(flag.Value.String())
	if err != nil {
		return false
	}

	return value
}

func isFlagChanged(flag *pflag.Flag) bool {
	return flag != nil && flag.Changed
}

func getLogWriter(logPath string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // 50MB
		MaxBackups: 5,
		MaxAge:     30, // 30 days
		Compress:   false,
	}
}
