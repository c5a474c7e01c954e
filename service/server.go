package service

import (
	"bufio"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"

	irodsfs_common_utils "github.com/cyverse/irodsfs-common/utils"
	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service/api"
	"github.com/cyverse/mockdata-pool/service/dataset"
	"github.com/cyverse/mockdata-pool/service/io"
	"github.com/cyverse/mockdata-pool/utils"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	responseBufferSize int = 64 * 1024 // 64KB
)

// ServerConfig is a configuration for Server
type ServerConfig struct {
	DataFilePath     string
	Dataset          commons.DatasetConfig
	CacheEntriesMax  int64
	PopulationPolicy commons.PopulationPolicy
	RangeLinesMax    int64
}

// NewServerConfig creates ServerConfig from Config
func NewServerConfig(config *commons.Config) *ServerConfig {
	return &ServerConfig{
		DataFilePath:     config.DataFilePath,
		Dataset:          config.GetDatasetConfig(),
		CacheEntriesMax:  config.GetCacheEntriesMax(),
		PopulationPolicy: config.PopulationPolicy,
		RangeLinesMax:    config.RangeLinesMax,
	}
}

// Server serves the dataset over HTTP
type Server struct {
	config *ServerConfig

	// lock serializes data file creation and every cache population pass
	lock *sync.Mutex

	generator   *dataset.Generator
	cache       *io.LRULineCache
	populator   *CachePopulator
	rangeServer *RangeServer
	dataFile    *io.SyncDataFile

	mux *http.ServeMux
}

// NewServer creates a new Server
func NewServer(config *ServerConfig) (*Server, error) {
	if config.Dataset.LineCount <= 0 {
		return nil, xerrors.Errorf("dataset must have at least one line, got %d", config.Dataset.LineCount)
	}

	if config.CacheEntriesMax <= 0 || config.CacheEntriesMax > math.MaxInt {
		return nil, xerrors.Errorf("invalid cache entries max %d", config.CacheEntriesMax)
	}

	if config.RangeLinesMax <= 0 {
		return nil, xerrors.Errorf("invalid range lines max %d", config.RangeLinesMax)
	}

	cache, err := io.NewLRULineCache(int(config.CacheEntriesMax), onCacheEvicted)
	if err != nil {
		return nil, err
	}

	lock := &sync.Mutex{}
	generator := dataset.NewGenerator(config.Dataset)
	populator := NewCachePopulator(generator, cache, config.PopulationPolicy, lock)

	server := &Server{
		config: config,

		lock: lock,

		generator:   generator,
		cache:       cache,
		populator:   populator,
		rangeServer: NewRangeServer(config.Dataset.LineCount, config.RangeLinesMax, cache, populator),
		dataFile:    io.NewSyncDataFile(config.DataFilePath, generator, lock),

		mux: http.NewServeMux(),
	}

	server.mux.HandleFunc("GET "+api.GenerateMockDataPath, server.instrument(api.GenerateMockDataPath, server.GenerateMockData))
	server.mux.HandleFunc("GET "+api.GetDataPath, server.instrument(api.GetDataPath, server.GetData))
	server.mux.HandleFunc("GET "+api.FetchDataPath, server.instrument(api.FetchDataPath, server.FetchData))

	promGaugeForCacheCapacity.Set(float64(cache.Capacity()))

	return server, nil
}

// Release releases all resources
func (server *Server) Release() {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "Server",
		"function": "Release",
	})

	defer irodsfs_common_utils.StackTraceFromPanic(logger)

	logger.Info("Release")
	defer logger.Info("Released")

	if server.cache != nil {
		server.cache.Release()
	}
}

// Handler returns the HTTP handler
func (server *Server) Handler() http.Handler {
	return server.mux
}

// GetDataFilePath returns the path of the data file
func (server *Server) GetDataFilePath() string {
	return server.dataFile.GetPath()
}

// GetPopulator returns the cache populator
func (server *Server) GetPopulator() *CachePopulator {
	return server.populator
}

// GetCacheSize returns the number of lines in cache
func (server *Server) GetCacheSize() int {
	return server.cache.Size()
}

// GetCacheEvictions returns the number of lines evicted from cache
func (server *Server) GetCacheEvictions() uint64 {
	return server.cache.GetEvictions()
}

// GenerateMockData creates the data file if absent
func (server *Server) GenerateMockData(writer http.ResponseWriter, request *http.Request) {
	logger := requestLogger(request, "GenerateMockData")

	logger.Info("GenerateMockData request")
	defer logger.Info("GenerateMockData response")

	info, created, err := server.dataFile.Create()
	if err != nil {
		logger.WithError(err).Error("failed to create data file")
		server.writeJSON(writer, http.StatusInternalServerError, &api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	if !created {
		server.writeJSON(writer, http.StatusOK, &api.MessageResponse{
			Message: info.Path + " already exists",
			Size:    info.Size,
		})
		return
	}

	promCounterForDataFileCreations.Inc()

	server.writeJSON(writer, http.StatusCreated, &api.MessageResponse{
		Message: info.Path + " created",
		Size:    server.config.Dataset.DataSizeTotal,
	})
}

// GetData streams lines [start, end] as plain text
func (server *Server) GetData(writer http.ResponseWriter, request *http.Request) {
	logger := requestLogger(request, "GetData")

	query := request.URL.Query()

	start, err := utils.ParseInt64OrDefault(query.Get(api.StartParam), api.StartParamDefault)
	if err != nil {
		logger.WithError(err).Debug("failed to parse start")
		server.writeJSON(writer, http.StatusBadRequest, &api.ErrorResponse{Error: api.InvalidRangeMessage})
		return
	}

	end, err := utils.ParseInt64OrDefault(query.Get(api.EndParam), api.EndParamDefault)
	if err != nil {
		logger.WithError(err).Debug("failed to parse end")
		server.writeJSON(writer, http.StatusBadRequest, &api.ErrorResponse{Error: api.InvalidRangeMessage})
		return
	}

	logger.Infof("GetData request, range [%d, %d]", start, end)
	defer logger.Infof("GetData response, range [%d, %d]", start, end)

	result, err := server.rangeServer.Serve(start, end)
	if err != nil {
		if commons.IsInvalidRangeError(err) {
			server.writeJSON(writer, http.StatusBadRequest, &api.ErrorResponse{Error: api.InvalidRangeMessage})
			return
		}

		if commons.IsOutOfBoundsError(err) {
			server.writeJSON(writer, http.StatusBadRequest, &api.ErrorResponse{Error: api.OutOfBoundsMessage})
			return
		}

		if commons.IsRangeTooLargeError(err) {
			server.writeJSON(writer, http.StatusBadRequest, &api.ErrorResponse{Error: api.RangeTooLargeMessage})
			return
		}

		logger.WithError(err).Errorf("failed to serve range [%d, %d]", start, end)
		server.writeJSON(writer, http.StatusInternalServerError, &api.ErrorResponse{Error: err.Error()})
		return
	}

	if result.IsPartial() {
		logger.Warnf("%d lines of range [%d, %d] are unresolved", len(result.Unresolved), start, end)
		writer.Header().Set(api.UnresolvedLinesHeader, strconv.Itoa(len(result.Unresolved)))
	}

	if result.PopulationError != nil {
		writer.Header().Set(api.PopulationErrorHeader, result.PopulationError.Error())
	}

	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(http.StatusOK)

	bufferedWriter := bufio.NewWriterSize(writer, responseBufferSize)
	for _, line := range result.Lines {
		bufferedWriter.WriteString(line)
		bufferedWriter.WriteByte('\n')
	}

	err = bufferedWriter.Flush()
	if err != nil {
		logger.WithError(err).Warn("failed to write response")
	}
}

// FetchData populates the whole cache unless it is already populated
func (server *Server) FetchData(writer http.ResponseWriter, request *http.Request) {
	logger := requestLogger(request, "FetchData")

	logger.Info("FetchData request")
	defer logger.Info("FetchData response")

	populated, err := server.populator.PopulateAll()
	if err != nil {
		logger.WithError(err).Error("failed to populate cache")
		server.writeJSON(writer, http.StatusInternalServerError, &api.ErrorResponse{Error: err.Error()})
		return
	}

	if !populated {
		server.writeJSON(writer, http.StatusOK, &api.MessageResponse{
			Message: "Data already processed",
			Size:    server.config.Dataset.DataSizeTotal,
		})
		return
	}

	server.writeJSON(writer, http.StatusCreated, &api.MessageResponse{
		Message: "Data processed and stored in cache",
		Size:    server.config.Dataset.DataSizeTotal,
	})
}

func (server *Server) writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "Server",
		"function": "writeJSON",
	})

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	err := json.NewEncoder(writer).Encode(body)
	if err != nil {
		logger.WithError(err).Warn("failed to write JSON response")
	}
}

// statusRecorder keeps the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(status int) {
	recorder.status = status
	recorder.ResponseWriter.WriteHeader(status)
}

// instrument assigns a request id, counts responses and logs panics
func (server *Server) instrument(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		requestID := request.Header.Get(api.RequestIDHeader)
		if len(requestID) == 0 {
			requestID = xid.New().String()
			request.Header.Set(api.RequestIDHeader, requestID)
		}

		writer.Header().Set(api.RequestIDHeader, requestID)

		logger := requestLogger(request, "instrument")
		defer irodsfs_common_utils.StackTraceFromPanic(logger)

		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
		handler(recorder, request)

		promCounterForHTTPRequests.WithLabelValues(endpoint, strconv.Itoa(recorder.status)).Inc()
	}
}

func requestLogger(request *http.Request, function string) *log.Entry {
	return log.WithFields(log.Fields{
		"package":    "service",
		"struct":     "Server",
		"function":   function,
		"request_id": request.Header.Get(api.RequestIDHeader),
	})
}
