package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cyverse/mockdata-pool/commons"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout time.Duration = 10 * time.Second
)

// MockDataService is a service object
type MockDataService struct {
	config     *commons.Config
	server     *Server
	httpServer *http.Server

	terminateChan chan bool
	terminated    bool
	mutex         sync.Mutex // for termination
}

// NewMockDataService creates a new mock data service
func NewMockDataService(config *commons.Config) (*MockDataService, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"function": "NewMockDataService",
	})

	server, err := NewServer(NewServerConfig(config))
	if err != nil {
		logger.WithError(err).Error("failed to create a new server")
		return nil, err
	}

	return &MockDataService{
		config: config,
		server: server,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", config.ServicePort),
			Handler: server.Handler(),
		},
		terminateChan: make(chan bool),
	}, nil
}

// GetServer returns the HTTP server
func (svc *MockDataService) GetServer() *Server {
	return svc.server
}

// Start starts the service and blocks until it stops
func (svc *MockDataService) Start() error {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "MockDataService",
		"function": "Start",
	})

	logger.Info("Starting the mock data service")

	listener, err := net.Listen("tcp", svc.httpServer.Addr)
	if err != nil {
		logger.WithError(err).Errorf("failed to listen %s", svc.httpServer.Addr)
		return err
	}

	dataset := svc.server.config.Dataset
	logger.Infof("Serving %d lines (%d bytes) at %s, cache capacity %d, %s population", dataset.LineCount, dataset.DataSizeTotal, listener.Addr().String(), svc.server.cache.Capacity(), svc.server.GetPopulator().GetPolicy())
	logger.Infof("Data file path %s", svc.server.GetDataFilePath())

	return svc.serve(listener)
}

func (svc *MockDataService) serve(listener net.Listener) error {
	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		err := svc.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		svc.runStatLogger(ctx)
		return nil
	})

	return group.Wait()
}

func (svc *MockDataService) runStatLogger(ctx context.Context) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "MockDataService",
		"function": "runStatLogger",
	})

	interval := svc.config.GetStatLogInterval()
	if interval <= 0 {
		interval = commons.StatLogIntervalDefault
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.terminateChan:
			// terminate
			return
		case <-ctx.Done():
			// serving failed
			return
		case <-ticker.C:
			svc.server.CollectPrometheusMetrics()
			logger.Infof("Total %d lines in cache, %d evicted", svc.server.GetCacheSize(), svc.server.GetCacheEvictions())
		}
	}
}

// Stop stops the service
func (svc *MockDataService) Stop() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	if svc.terminated {
		// already terminated
		return
	}

	svc.terminated = true

	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "MockDataService",
		"function": "Stop",
	})

	logger.Info("Stopping the mock data service")
	close(svc.terminateChan)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := svc.httpServer.Shutdown(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed to shutdown HTTP server gracefully")
	}
}

// Release releases all resources
func (svc *MockDataService) Release() {
	svc.Stop()

	if svc.server != nil {
		svc.server.Release()
	}
}
