// Package perf samples runtime health once per tick and maintains
// bounded rolling history for each metric needing averaging.
package perf

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siegewar/perfctl/internal/logger"
)

// Host supplies ambient runtime readings for the current frame. The
// collector polls it once per tick; the host never pushes.
type Host interface {
	FrameStats() FrameStats
	MemoryStats() MemoryStats
	// NetworkStats reports false when no peer is connected; the
	// collector then substitutes zero values.
	NetworkStats() (NetworkStats, bool)
}

// ZoneSource supplies the latest contested-zone figures. The siege
// monitor implements it; the collector asks only when one is bound.
type ZoneSource interface {
	ZoneFigures() ZoneFigures
}

// Collector produces one Snapshot per tick. Snapshots are read-shared
// with the alert manager and optimizer; only the collector writes.
type Collector struct {
	host Host
	gpu  *gpuSlot
	prom *promGauges

	mu         sync.RWMutex
	zones      ZoneSource
	latest     Snapshot
	frameTimes *History[float64]
	fpsHistory *History[float64]
	subs       []chan Snapshot
}

func NewCollector(host Host, gpu GPUTimer, historySize int) *Collector {
	return &Collector{
		host:       host,
		gpu:        newGPUSlot(gpu),
		prom:       newPromGauges(),
		frameTimes: NewHistory[float64](historySize),
		fpsHistory: NewHistory[float64](historySize),
	}
}

// BindZoneSource attaches the siege monitor so its figures appear in
// subsequent snapshots.
func (c *Collector) BindZoneSource(src ZoneSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zones = src
}

// Sample reads the host's current counters, submits an asynchronous GPU
// timing request, and produces the tick's snapshot. It never fails:
// unavailable sub-readings degrade to zero values.
func (c *Collector) Sample() Snapshot {
	frame := c.host.FrameStats()
	memory := c.host.MemoryStats()

	// Submit this tick's GPU request; consume the previous result.
	c.gpu.request()
	gpuMs := c.gpu.lastResult()

	var network NetworkStats
	if stats, ok := c.host.NetworkStats(); ok {
		network = stats
	}

	var fps float64
	if frame.DeltaMs > 0 {
		fps = 1000.0 / frame.DeltaMs
	}

	// ZoneFigures takes the siege monitor's lock, and the monitor calls
	// back into LatestSnapshot on its own tick. Never hold c.mu across
	// the call or the two loops deadlock.
	c.mu.RLock()
	zones := c.zones
	c.mu.RUnlock()

	var figures ZoneFigures
	if zones != nil {
		figures = zones.ZoneFigures()
	}

	c.mu.Lock()
	c.frameTimes.Push(frame.DeltaMs)
	c.fpsHistory.Push(fps)

	snapshot := Snapshot{
		Timestamp:        time.Now(),
		FrameTimeMs:      frame.DeltaMs,
		FPS:              fps,
		AverageFPS:       c.fpsHistory.Average(),
		MinimumFPS:       c.fpsHistory.Min(),
		GPUTimeMs:        gpuMs,
		RenderThreadMs:   frame.RenderThreadMs,
		DrawCalls:        frame.DrawCalls,
		Triangles:        frame.Triangles,
		PhysicalMemoryMB: memory.PhysicalMB,
		VirtualMemoryMB:  memory.VirtualMB,
		TextureMemoryMB:  memory.TextureMB,
		NetworkLatencyMs: network.LatencyMs,
		PacketsPerSec:    network.PacketsPerSec,
		BandwidthKBps:    network.BandwidthKBps,
	}

	if zones != nil {
		snapshot.ActiveZones = figures.ActiveZones
		snapshot.ZoneQueryMs = figures.QueryMs
		snapshot.ZoneUpdatesPerSec = figures.UpdatesPerSec
	}

	c.latest = snapshot
	subs := c.subs
	c.mu.Unlock()

	c.prom.update(snapshot)
	notify(subs, snapshot)

	return snapshot
}

// LatestSnapshot returns the most recent snapshot.
func (c *Collector) LatestSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.latest
}

// FrameTimeHistory returns the rolling frame time samples, oldest first.
func (c *Collector) FrameTimeHistory() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.frameTimes.Samples()
}

// FPSHistory returns the rolling FPS samples, oldest first.
func (c *Collector) FPSHistory() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.fpsHistory.Samples()
}

// History returns the rolling samples for a metric by name, or nil for
// a metric without a rolling window.
func (c *Collector) History(metric string) []float64 {
	switch metric {
	case "frame_time":
		return c.FrameTimeHistory()
	case "fps":
		return c.FPSHistory()
	default:
		return nil
	}
}

// Subscribe returns a channel receiving every snapshot as it is
// produced. Slow consumers drop snapshots rather than stall the tick.
func (c *Collector) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 16)

	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	return ch
}

// Registry exposes the prometheus registry holding the live gauges.
func (c *Collector) Registry() *prometheus.Registry {
	return c.prom.registry
}

// Close stops the GPU timing worker.
func (c *Collector) Close() {
	c.gpu.close()
	logger.Debug().Msg("Collector closed")
}

func notify(subs []chan Snapshot, s Snapshot) {
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}
