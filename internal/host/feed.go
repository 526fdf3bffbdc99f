// Package host receives runtime figures pushed by the instrumented game
// process and serves them to the collector's per-tick polls. The game
// posts one JSON payload per frame batch; the feed caches the latest
// and answers polls from the cache, so a stalled game never blocks a
// tick.
package host

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
)

// Payloads older than this are treated as the game having gone away.
const staleAfter = 5 * time.Second

// Payload is the wire format the game process posts to /ingest.
type Payload struct {
	FrameTimeMs    float64 `json:"frame_time_ms"`
	RenderThreadMs float64 `json:"render_thread_ms"`
	GPUTimeMs      float64 `json:"gpu_time_ms"`
	DrawCalls      int     `json:"draw_calls"`
	Triangles      int     `json:"triangles"`

	PhysicalMemoryMB float64 `json:"physical_memory_mb"`
	VirtualMemoryMB  float64 `json:"virtual_memory_mb"`
	TextureMemoryMB  float64 `json:"texture_memory_mb"`

	Connected     bool    `json:"connected"`
	LatencyMs     float64 `json:"latency_ms"`
	PacketsPerSec float64 `json:"packets_per_sec"`
	BandwidthKBps float64 `json:"bandwidth_kbps"`
}

// Feed caches the most recent payload. It implements perf.Host and
// perf.GPUTimer; the GPU reading rides in the same payload, the timer
// just hands the cached value to the collector's async slot.
type Feed struct {
	mu       sync.RWMutex
	latest   Payload
	received time.Time
}

func NewFeed() *Feed {
	return &Feed{}
}

// Update replaces the cached payload.
func (f *Feed) Update(p Payload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = p
	f.received = time.Now()
}

// ServeHTTP ingests one payload per POST.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		logger.Debug().Err(err).Msg("Rejected malformed ingest payload")
		http.Error(w, "malformed payload", http.StatusBadRequest)

		return
	}

	f.Update(p)
	w.WriteHeader(http.StatusNoContent)
}

func (f *Feed) FrameStats() perf.FrameStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stale() {
		return perf.FrameStats{}
	}

	return perf.FrameStats{
		DeltaMs:        f.latest.FrameTimeMs,
		RenderThreadMs: f.latest.RenderThreadMs,
		DrawCalls:      f.latest.DrawCalls,
		Triangles:      f.latest.Triangles,
	}
}

func (f *Feed) MemoryStats() perf.MemoryStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stale() {
		return perf.MemoryStats{}
	}

	return perf.MemoryStats{
		PhysicalMB: f.latest.PhysicalMemoryMB,
		VirtualMB:  f.latest.VirtualMemoryMB,
		TextureMB:  f.latest.TextureMemoryMB,
	}
}

func (f *Feed) NetworkStats() (perf.NetworkStats, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stale() || !f.latest.Connected {
		return perf.NetworkStats{}, false
	}

	return perf.NetworkStats{
		LatencyMs:     f.latest.LatencyMs,
		PacketsPerSec: f.latest.PacketsPerSec,
		BandwidthKBps: f.latest.BandwidthKBps,
	}, true
}

// Measure implements perf.GPUTimer with the cached GPU frame time.
func (f *Feed) Measure() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stale() {
		return 0
	}

	return f.latest.GPUTimeMs
}

func (f *Feed) stale() bool {
	return f.received.IsZero() || time.Since(f.received) > staleAfter
}
