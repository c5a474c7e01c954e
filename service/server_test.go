package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, lineCount int64, capacity int64) *Server {
	server, err := NewServer(&ServerConfig{
		DataFilePath:     filepath.Join(t.TempDir(), "mock_data.txt"),
		Dataset:          testDatasetConfig(lineCount),
		CacheEntriesMax:  capacity,
		PopulationPolicy: commons.PopulationPolicyFull,
		RangeLinesMax:    commons.RangeLinesMaxDefault,
	})
	require.NoError(t, err)

	t.Cleanup(server.Release)
	return server
}

func doRequest(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func decodeMessage(t *testing.T, recorder *httptest.ResponseRecorder) api.MessageResponse {
	response := api.MessageResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) api.ErrorResponse {
	response := api.ErrorResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func TestNewServer_InvalidConfig(t *testing.T) {
	_, err := NewServer(&ServerConfig{
		Dataset:         testDatasetConfig(0),
		CacheEntriesMax: 10,
	})
	assert.Error(t, err)

	_, err = NewServer(&ServerConfig{
		Dataset:         testDatasetConfig(10),
		CacheEntriesMax: 0,
		RangeLinesMax:   10,
	})
	assert.Error(t, err)

	_, err = NewServer(&ServerConfig{
		Dataset:         testDatasetConfig(10),
		CacheEntriesMax: 10,
		RangeLinesMax:   0,
	})
	assert.Error(t, err)
}

func TestNewServer_Accessors(t *testing.T) {
	server := newTestServer(t, 100, 100)

	assert.Equal(t, server.config.DataFilePath, server.GetDataFilePath())
	assert.Equal(t, commons.PopulationPolicyFull, server.GetPopulator().GetPolicy())
	assert.Zero(t, server.GetCacheSize())
}

func TestServer_GenerateMockData(t *testing.T) {
	server := newTestServer(t, 100, 100)

	recorder := doRequest(t, server, api.GenerateMockDataPath)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get(api.RequestIDHeader))

	created := decodeMessage(t, recorder)
	assert.Equal(t, server.GetDataFilePath()+" created", created.Message)
	assert.Equal(t, int64(100*commons.LineSizeEstimateDefault), created.Size)

	recorder = doRequest(t, server, api.GenerateMockDataPath)
	assert.Equal(t, http.StatusOK, recorder.Code)

	existing := decodeMessage(t, recorder)
	assert.Equal(t, server.config.DataFilePath+" already exists", existing.Message)

	st, err := os.Stat(server.config.DataFilePath)
	require.NoError(t, err)
	assert.Equal(t, st.Size(), existing.Size)

	entries, err := os.ReadDir(filepath.Dir(server.config.DataFilePath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestServer_GetData(t *testing.T) {
	server := newTestServer(t, 100, 100)

	recorder := doRequest(t, server, api.GetDataPath+"?start=3&end=5")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/plain"))
	assert.Empty(t, recorder.Header().Get(api.UnresolvedLinesHeader))

	expected := "[3] : 0.030000000000000 processed\n" +
		"[4] : 0.040000000000000 processed\n" +
		"[5] : 0.050000000000000 processed\n"
	assert.Equal(t, expected, recorder.Body.String())
}

func TestServer_GetData_DefaultRange(t *testing.T) {
	server := newTestServer(t, 1000, 1000)

	recorder := doRequest(t, server, api.GetDataPath)
	assert.Equal(t, http.StatusOK, recorder.Code)

	lines := strings.Split(strings.TrimSuffix(recorder.Body.String(), "\n"), "\n")
	assert.Len(t, lines, 101)
	assert.Equal(t, "[0] : 0.000000000000000 processed", lines[0])
	assert.Equal(t, "[100] : 0.100000000000000 processed", lines[100])
}

func TestServer_GetData_ValidationErrors(t *testing.T) {
	server := newTestServer(t, 100, 100)

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"end before start", "?start=5&end=2", api.InvalidRangeMessage},
		{"negative start", "?start=-1&end=10", api.InvalidRangeMessage},
		{"start out of bounds", "?start=100&end=105", api.OutOfBoundsMessage},
		{"not a number", "?start=abc&end=10", api.InvalidRangeMessage},
		{"end at max int64", "?start=0&end=9223372036854775807", api.RangeTooLargeMessage},
		{"end past max int64", "?start=0&end=9223372036854775808", api.InvalidRangeMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doRequest(t, server, api.GetDataPath+tt.query)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.message, decodeError(t, recorder).Error)
		})
	}
}

func TestServer_GetData_Partial(t *testing.T) {
	server := newTestServer(t, 100, 10)

	recorder := doRequest(t, server, api.GetDataPath+"?start=0&end=2")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "3", recorder.Header().Get(api.UnresolvedLinesHeader))
	assert.NotEmpty(t, recorder.Header().Get(api.PopulationErrorHeader))
	assert.Equal(t, "\n\n\n", recorder.Body.String())
}

func TestServer_FetchData(t *testing.T) {
	server := newTestServer(t, 100, 100)

	recorder := doRequest(t, server, api.FetchDataPath)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "Data processed and stored in cache", decodeMessage(t, recorder).Message)
	assert.Equal(t, 100, server.GetCacheSize())

	recorder = doRequest(t, server, api.FetchDataPath)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Data already processed", decodeMessage(t, recorder).Message)
	assert.Equal(t, 100, server.GetCacheSize())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, 10, 10)

	request := httptest.NewRequest(http.MethodPost, api.FetchDataPath, nil)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestServer_RequestIDPropagated(t *testing.T) {
	server := newTestServer(t, 10, 10)

	request := httptest.NewRequest(http.MethodGet, api.FetchDataPath, nil)
	request.Header.Set(api.RequestIDHeader, "test-request")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	assert.Equal(t, "test-request", recorder.Header().Get(api.RequestIDHeader))
}
