package client

import (
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cyverse/mockdata-pool/commons"
	"github.com/cyverse/mockdata-pool/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, lineCount int64, capacity int64) (*service.Server, *httptest.Server) {
	server, err := service.NewServer(&service.ServerConfig{
		DataFilePath: filepath.Join(t.TempDir(), "mock_data.txt"),
		Dataset: commons.DatasetConfig{
			DataSizeTotal:    lineCount * commons.LineSizeEstimateDefault,
			LineSizeEstimate: commons.LineSizeEstimateDefault,
			LineCount:        lineCount,
		},
		CacheEntriesMax:  capacity,
		PopulationPolicy: commons.PopulationPolicyFull,
		RangeLinesMax:    1000,
	})
	require.NoError(t, err)

	httpServer := httptest.NewServer(server.Handler())

	t.Cleanup(func() {
		httpServer.Close()
		server.Release()
	})

	return server, httpServer
}

func newTestClient(t *testing.T, address string, useCache bool) *MockDataClient {
	client := NewMockDataClient(address, time.Minute, "test_client", useCache)
	t.Cleanup(client.Release)
	return client
}

func TestMockDataClient_GetData(t *testing.T) {
	_, httpServer := newTestService(t, 100, 100)
	client := newTestClient(t, httpServer.URL, false)

	response, err := client.GetData(1, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[1] : 0.010000000000000 processed",
		"[2] : 0.020000000000000 processed",
	}, response.Lines)
	assert.False(t, response.IsPartial())
	assert.Empty(t, response.PopulationError)
	assert.NotEmpty(t, response.RequestID)
}

func TestMockDataClient_GetData_Errors(t *testing.T) {
	_, httpServer := newTestService(t, 100, 100)
	client := newTestClient(t, httpServer.URL, false)

	_, err := client.GetData(5, 2)
	assert.True(t, commons.IsInvalidRangeError(err))

	_, err = client.GetData(-1, 2)
	assert.True(t, commons.IsInvalidRangeError(err))

	_, err = client.GetData(100, 120)
	assert.True(t, commons.IsOutOfBoundsError(err))

	_, err = client.GetData(0, math.MaxInt64)
	assert.True(t, commons.IsRangeTooLargeError(err))
}

func TestMockDataClient_GetData_Partial(t *testing.T) {
	_, httpServer := newTestService(t, 10, 10)
	client := newTestClient(t, httpServer.URL, true)

	response, err := client.GetData(8, 11)
	require.NoError(t, err)

	require.Len(t, response.Lines, 4)
	assert.Equal(t, "", response.Lines[2])
	assert.Equal(t, "", response.Lines[3])
	assert.Equal(t, 2, response.UnresolvedLines)
	assert.True(t, response.IsPartial())

	// partial ranges are not cached
	assert.Equal(t, 0, client.rangeCache.GetSize())
}

func TestMockDataClient_GetData_LocalCache(t *testing.T) {
	server, httpServer := newTestService(t, 100, 100)
	client := newTestClient(t, httpServer.URL, true)

	first, err := client.GetData(0, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, client.rangeCache.GetSize())

	server.Release()
	assert.Equal(t, 0, server.GetCacheSize())

	second, err := client.GetData(0, 9)
	require.NoError(t, err)

	// served locally, the service cache stays empty
	assert.Same(t, first, second)
	assert.Equal(t, 0, server.GetCacheSize())
}

func TestMockDataClient_FetchData(t *testing.T) {
	server, httpServer := newTestService(t, 100, 100)
	client := newTestClient(t, httpServer.URL, false)

	message, populated, err := client.FetchData()
	require.NoError(t, err)
	assert.True(t, populated)
	assert.Equal(t, int64(2000), message.Size)
	assert.Equal(t, 100, server.GetCacheSize())

	_, populated, err = client.FetchData()
	require.NoError(t, err)
	assert.False(t, populated)
}

func TestMockDataClient_GenerateMockData(t *testing.T) {
	_, httpServer := newTestService(t, 100, 100)
	client := newTestClient(t, httpServer.URL, false)

	message, created, err := client.GenerateMockData()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, message.Message, "created")

	message, created, err = client.GenerateMockData()
	require.NoError(t, err)
	assert.False(t, created)
	assert.Contains(t, message.Message, "already exists")
	assert.Greater(t, message.Size, int64(0))
}

func TestMockDataClient_ServiceDown(t *testing.T) {
	httpServer := httptest.NewServer(http.NotFoundHandler())
	address := httpServer.URL
	httpServer.Close()

	client := newTestClient(t, address, false)

	_, err := client.GetData(0, 1)
	assert.Error(t, err)
}

func TestNewMockDataClient_Address(t *testing.T) {
	client := NewMockDataClient("localhost:12030/", time.Second, "", false)
	defer client.Release()

	assert.Equal(t, "http://localhost:12030", client.address)
	assert.NotEmpty(t, client.GetID())
	assert.Nil(t, client.rangeCache)
}
