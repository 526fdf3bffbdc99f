package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWait = time.Second
	testPoll = 5 * time.Millisecond
)

type fakeHost struct {
	frame     FrameStats
	memory    MemoryStats
	network   NetworkStats
	connected bool
}

func (f *fakeHost) FrameStats() FrameStats   { return f.frame }
func (f *fakeHost) MemoryStats() MemoryStats { return f.memory }
func (f *fakeHost) NetworkStats() (NetworkStats, bool) {
	return f.network, f.connected
}

type fakeGPUTimer struct {
	mu      sync.Mutex
	results []float64
	calls   int
}

func (f *fakeGPUTimer) Measure() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.results) == 0 {
		return 0
	}
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++

	return f.results[idx]
}

type fakeZones struct {
	figures ZoneFigures
}

func (f *fakeZones) ZoneFigures() ZoneFigures { return f.figures }

func TestSampleBuildsSnapshot(t *testing.T) {
	host := &fakeHost{
		frame:     FrameStats{DeltaMs: 20, RenderThreadMs: 8, DrawCalls: 1200, Triangles: 500000},
		memory:    MemoryStats{PhysicalMB: 4096, VirtualMB: 6144, TextureMB: 1024},
		network:   NetworkStats{LatencyMs: 42, PacketsPerSec: 30, BandwidthKBps: 256},
		connected: true,
	}
	c := NewCollector(host, &fakeGPUTimer{}, 10)
	defer c.Close()

	s := c.Sample()

	assert.Equal(t, 20.0, s.FrameTimeMs)
	assert.InDelta(t, 50.0, s.FPS, 0.001)
	assert.Equal(t, 4096.0, s.PhysicalMemoryMB)
	assert.Equal(t, 42.0, s.NetworkLatencyMs)
	assert.Equal(t, 1200, s.DrawCalls)
	assert.Equal(t, s, c.LatestSnapshot())
}

func TestSampleNoPeerDefaults(t *testing.T) {
	host := &fakeHost{
		frame:     FrameStats{DeltaMs: 16.67},
		network:   NetworkStats{LatencyMs: 42},
		connected: false,
	}
	c := NewCollector(host, &fakeGPUTimer{}, 10)
	defer c.Close()

	s := c.Sample()

	assert.Equal(t, 0.0, s.NetworkLatencyMs)
	assert.Equal(t, 0.0, s.PacketsPerSec)
	assert.Equal(t, 0.0, s.BandwidthKBps)
}

func TestSampleZeroDeltaAvoidsInfiniteFPS(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 0}}
	c := NewCollector(host, &fakeGPUTimer{}, 10)
	defer c.Close()

	s := c.Sample()

	assert.Equal(t, 0.0, s.FPS)
}

func TestSampleGPUResultLagsOneTick(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 16.67}}
	timer := &fakeGPUTimer{results: []float64{7.5}}
	c := NewCollector(host, timer, 10)
	defer c.Close()

	// The first tick submits the request; its snapshot still carries
	// the zero value from before any measurement completed.
	first := c.Sample()
	assert.Equal(t, 0.0, first.GPUTimeMs)

	// Give the timing worker a chance to finish the first request.
	assert.Eventually(t, func() bool {
		return c.Sample().GPUTimeMs == 7.5
	}, testWait, testPoll)
}

func TestHistoriesTrackSamples(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 25}}
	c := NewCollector(host, &fakeGPUTimer{}, 3)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Sample()
	}

	require.Len(t, c.FrameTimeHistory(), 3)
	assert.Equal(t, []float64{25, 25, 25}, c.FrameTimeHistory())
	assert.InDelta(t, 40.0, c.LatestSnapshot().AverageFPS, 0.001)
}

func TestHistoryByName(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 20}}
	c := NewCollector(host, &fakeGPUTimer{}, 5)
	defer c.Close()

	c.Sample()

	assert.Equal(t, []float64{20}, c.History("frame_time"))
	assert.InDelta(t, 50.0, c.History("fps")[0], 0.001)
	assert.Nil(t, c.History("unknown"))
}

func TestZoneSourceForwarded(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 16.67}}
	c := NewCollector(host, &fakeGPUTimer{}, 10)
	defer c.Close()

	c.BindZoneSource(&fakeZones{figures: ZoneFigures{ActiveZones: 4, QueryMs: 1.5, UpdatesPerSec: 12}})
	s := c.Sample()

	assert.Equal(t, 4, s.ActiveZones)
	assert.Equal(t, 1.5, s.ZoneQueryMs)
	assert.Equal(t, 12.0, s.ZoneUpdatesPerSec)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	host := &fakeHost{frame: FrameStats{DeltaMs: 16.67}}
	c := NewCollector(host, &fakeGPUTimer{}, 10)
	defer c.Close()

	ch := c.Subscribe()
	produced := c.Sample()

	select {
	case received := <-ch:
		assert.Equal(t, produced, received)
	default:
		t.Fatal("expected a snapshot on the subscription channel")
	}
}
