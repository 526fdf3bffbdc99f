package host

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedServesLatestPayload(t *testing.T) {
	feed := NewFeed()
	feed.Update(Payload{
		FrameTimeMs:      20,
		GPUTimeMs:        8.5,
		DrawCalls:        1500,
		PhysicalMemoryMB: 4096,
		Connected:        true,
		LatencyMs:        35,
	})

	frame := feed.FrameStats()
	assert.Equal(t, 20.0, frame.DeltaMs)
	assert.Equal(t, 1500, frame.DrawCalls)

	memory := feed.MemoryStats()
	assert.Equal(t, 4096.0, memory.PhysicalMB)

	network, ok := feed.NetworkStats()
	require.True(t, ok)
	assert.Equal(t, 35.0, network.LatencyMs)

	assert.Equal(t, 8.5, feed.Measure())
}

func TestFeedEmptyIsStale(t *testing.T) {
	feed := NewFeed()

	assert.Equal(t, 0.0, feed.FrameStats().DeltaMs)
	_, ok := feed.NetworkStats()
	assert.False(t, ok)
	assert.Equal(t, 0.0, feed.Measure())
}

func TestFeedDisconnectedPeer(t *testing.T) {
	feed := NewFeed()
	feed.Update(Payload{FrameTimeMs: 16.67, Connected: false, LatencyMs: 99})

	_, ok := feed.NetworkStats()
	assert.False(t, ok)
	assert.Equal(t, 16.67, feed.FrameStats().DeltaMs)
}

func TestFeedStalePayloadExpires(t *testing.T) {
	feed := NewFeed()
	feed.Update(Payload{FrameTimeMs: 16.67, Connected: true})
	feed.received = time.Now().Add(-2 * staleAfter)

	assert.Equal(t, 0.0, feed.FrameStats().DeltaMs)
	_, ok := feed.NetworkStats()
	assert.False(t, ok)
}

func TestIngestEndpoint(t *testing.T) {
	feed := NewFeed()
	server := httptest.NewServer(feed)
	defer server.Close()

	body := `{"frame_time_ms": 25.0, "gpu_time_ms": 12.0, "connected": true, "latency_ms": 48}`
	resp, err := http.Post(server.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 25.0, feed.FrameStats().DeltaMs)
	assert.Equal(t, 12.0, feed.Measure())
}

func TestIngestRejectsMalformedPayload(t *testing.T) {
	feed := NewFeed()
	server := httptest.NewServer(feed)
	defer server.Close()

	resp, err := http.Post(server.URL, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestRejectsNonPost(t *testing.T) {
	feed := NewFeed()
	server := httptest.NewServer(feed)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
