package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cmd_commons "github.com/cyverse/mockdata-pool/cmd/commons"
	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service"
	log "github.com/sirupsen/logrus"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockdata-pool [args..]",
	Short: "Run Mock Data Pool Service",
	Long:  "Run Mock Data Pool Service that generates a synthetic numeric dataset and serves ranges of it over HTTP.",
	RunE:  processCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func processCommand(command *cobra.Command, args []string) error {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "processCommand",
	})

	config, logWriter, cont, err := cmd_commons.ProcessCommonFlags(command)
	if logWriter != nil {
		defer logWriter.Close()
	}

	if err != nil {
		logger.Error(err)
		return err
	}

	if !cont {
		return nil
	}

	err = run(config)
	if err != nil {
		logger.WithError(err).Error("failed to run Mock Data Pool Service")
		return err
	}

	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000000",
		FullTimestamp:   true,
	})

	log.SetLevel(log.InfoLevel)

	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "main",
	})

	// attach common flags
	cmd_commons.SetCommonFlags(rootCmd)

	err := Execute()
	if err != nil {
		logger.Fatal(err)
		os.Exit(1)
	}
}

// run runs Mock Data Pool Service
func run(config *commons.Config) error {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "run",
	})

	if config.Debug {
		log.SetLevel(log.DebugLevel)
	}

	versionInfo := commons.GetVersion()
	logger.Infof("Mock Data Pool Service version - %s, commit - %s", versionInfo.ServiceVersion, versionInfo.GitCommit)

	err := config.Validate()
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return err
	}

	// profile
	if config.Profile && config.ProfileServicePort > 0 {
		go func() {
			profileServiceAddr := fmt.Sprintf(":%d", config.ProfileServicePort)

			logger.Infof("Starting profile service at %s", profileServiceAddr)
			http.ListenAndServe(profileServiceAddr, nil)
		}()

		prof := profile.Start(profile.MemProfile)
		defer prof.Stop()
	}

	if config.PrometheusExporterPort > 0 {
		go func() {
			prometheusExporterAddr := fmt.Sprintf(":%d", config.PrometheusExporterPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())

			logger.Infof("Starting prometheus exporter at %s", prometheusExporterAddr)
			err := http.ListenAndServe(prometheusExporterAddr, mux)
			if err != nil {
				logger.WithError(err).Error("failed to run prometheus exporter")
			}
		}()
	}

	// run a service
	svc, err := service.NewMockDataService(config)
	if err != nil {
		logger.WithError(err).Error("failed to create the service")
		return err
	}

	defer svc.Release()

	go func() {
		waitForCtrlC()
		svc.Stop()
	}()

	err = svc.Start()
	if err != nil {
		logger.WithError(err).Error("failed to start the service")
		return err
	}

	return nil
}

func waitForCtrlC() {
	var endWaiter sync.WaitGroup

	endWaiter.Add(1)
	signalChannel := make(chan os.Signal, 1)

	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChannel
		endWaiter.Done()
	}()

	endWaiter.Wait()
}
