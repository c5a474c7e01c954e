package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	irodsfs_common_utils "github.com/cyverse/irodsfs-common/utils"
	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service/api"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	lineLengthMax int = 1024 * 1024 // 1MB

	localRangeCacheTimeout time.Duration = 1 * time.Minute
)

// RangeResponse is a range of lines returned by the service
type RangeResponse struct {
	Start int64
	End   int64
	Lines []string

	// UnresolvedLines is the number of lines served as empty placeholders
	UnresolvedLines int
	// PopulationError is the message of the population pass that failed on the service, if any
	PopulationError string
	RequestID       string
}

// IsPartial returns true if any line of the range was served as a placeholder
func (response *RangeResponse) IsPartial() bool {
	return response.UnresolvedLines > 0
}

// MockDataClient is a client of mock data pool service
type MockDataClient struct {
	id               string
	address          string // http://host:port
	operationTimeout time.Duration
	httpClient       *http.Client
	rangeCache       *RangeCache
}

// NewMockDataClient creates a new mock data pool service client.
// Ranges are cached locally if useCache is true.
func NewMockDataClient(address string, operationTimeout time.Duration, clientID string, useCache bool) *MockDataClient {
	if len(clientID) == 0 {
		clientID = xid.New().String()
	}

	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	var rangeCache *RangeCache
	if useCache {
		rangeCache = NewRangeCache(localRangeCacheTimeout, localRangeCacheTimeout)
	}

	return &MockDataClient{
		id:               clientID,
		address:          strings.TrimSuffix(address, "/"),
		operationTimeout: operationTimeout,
		httpClient:       &http.Client{},
		rangeCache:       rangeCache,
	}
}

// GetID returns client id
func (client *MockDataClient) GetID() string {
	return client.id
}

// Release releases resources
func (client *MockDataClient) Release() {
	if client.rangeCache != nil {
		client.rangeCache.ClearRangeCache()
	}

	client.httpClient.CloseIdleConnections()
}

func (client *MockDataClient) getContextWithDeadline() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), client.operationTimeout)
}

func (client *MockDataClient) newRequestID() string {
	return fmt.Sprintf("%s-%s", client.id, xid.New().String())
}

func (client *MockDataClient) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	requestURL := client.address + path
	if len(query) > 0 {
		requestURL = requestURL + "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create a request for %q: %w", requestURL, err)
	}

	request.Header.Set(api.RequestIDHeader, client.newRequestID())

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to request %q: %w", requestURL, err)
	}

	return response, nil
}

// GenerateMockData requests the service to create its data file.
// Returns true if the file was created by this request.
func (client *MockDataClient) GenerateMockData() (*api.MessageResponse, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "client",
		"struct":   "MockDataClient",
		"function": "GenerateMockData",
	})

	defer irodsfs_common_utils.StackTraceFromPanic(logger)

	ctx, cancel := client.getContextWithDeadline()
	defer cancel()

	response, err := client.get(ctx, api.GenerateMockDataPath, nil)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, false, err
	}
	defer response.Body.Close()

	message, err := readMessageResponse(response)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, false, err
	}

	return message, response.StatusCode == http.StatusCreated, nil
}

// FetchData requests the service to load the whole dataset into its cache.
// Returns true if the cache was populated by this request.
func (client *MockDataClient) FetchData() (*api.MessageResponse, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "client",
		"struct":   "MockDataClient",
		"function": "FetchData",
	})

	defer irodsfs_common_utils.StackTraceFromPanic(logger)

	ctx, cancel := client.getContextWithDeadline()
	defer cancel()

	response, err := client.get(ctx, api.FetchDataPath, nil)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, false, err
	}
	defer response.Body.Close()

	message, err := readMessageResponse(response)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, false, err
	}

	return message, response.StatusCode == http.StatusCreated, nil
}

// GetData reads lines [start, end]
func (client *MockDataClient) GetData(start int64, end int64) (*RangeResponse, error) {
	logger := log.WithFields(log.Fields{
		"package":  "client",
		"struct":   "MockDataClient",
		"function": "GetData",
	})

	defer irodsfs_common_utils.StackTraceFromPanic(logger)

	if client.rangeCache != nil {
		cached := client.rangeCache.GetRangeCache(start, end)
		if cached != nil {
			logger.Debugf("Range [%d, %d] is found in local cache", start, end)
			return cached, nil
		}
	}

	ctx, cancel := client.getContextWithDeadline()
	defer cancel()

	query := url.Values{}
	query.Set(api.StartParam, strconv.FormatInt(start, 10))
	query.Set(api.EndParam, strconv.FormatInt(end, 10))

	response, err := client.get(ctx, api.GetDataPath, query)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		err = readErrorResponse(response, start, end)
		logger.Debugf("%+v", err)
		return nil, err
	}

	lines, err := readLines(response.Body)
	if err != nil {
		logger.Errorf("%+v", err)
		return nil, err
	}

	rangeResponse := &RangeResponse{
		Start:           start,
		End:             end,
		Lines:           lines,
		PopulationError: response.Header.Get(api.PopulationErrorHeader),
		RequestID:       response.Header.Get(api.RequestIDHeader),
	}

	unresolved := response.Header.Get(api.UnresolvedLinesHeader)
	if len(unresolved) > 0 {
		unresolvedLines, err := strconv.Atoi(unresolved)
		if err != nil {
			return nil, xerrors.Errorf("failed to parse %s header %q: %w", api.UnresolvedLinesHeader, unresolved, err)
		}

		rangeResponse.UnresolvedLines = unresolvedLines
	}

	// partial ranges may be complete on a later request
	if client.rangeCache != nil && !rangeResponse.IsPartial() {
		client.rangeCache.AddRangeCache(rangeResponse)
	}

	return rangeResponse, nil
}

func readLines(reader io.Reader) ([]string, error) {
	lines := []string{}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), lineLengthMax)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		return nil, xerrors.Errorf("failed to read lines: %w", err)
	}

	return lines, nil
}

func readMessageResponse(response *http.Response) (*api.MessageResponse, error) {
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return nil, readErrorResponse(response, 0, 0)
	}

	message := &api.MessageResponse{}
	err := json.NewDecoder(response.Body).Decode(message)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode response: %w", err)
	}

	return message, nil
}

// readErrorResponse converts an error response into an error
func readErrorResponse(response *http.Response, start int64, end int64) error {
	errorResponse := &api.ErrorResponse{}
	err := json.NewDecoder(response.Body).Decode(errorResponse)
	if err != nil {
		return xerrors.Errorf("request failed with status %d", response.StatusCode)
	}

	if response.StatusCode == http.StatusBadRequest {
		switch errorResponse.Error {
		case api.InvalidRangeMessage:
			return commons.NewInvalidRangeError(start, end)
		case api.OutOfBoundsMessage:
			// the service does not report its line count
			return commons.NewOutOfBoundsError(start, 0)
		case api.RangeTooLargeMessage:
			// nor its limit
			return commons.NewRangeTooLargeError(start, end, 0)
		}
	}

	return xerrors.Errorf("request failed with status %d: %s", response.StatusCode, errorResponse.Error)
}
