package perf

import "time"

// Snapshot is one tick's complete set of measured runtime metrics.
// It is immutable once produced; the next tick supersedes it.
type Snapshot struct {
	Timestamp time.Time

	// Frame pacing
	FrameTimeMs    float64
	FPS            float64
	AverageFPS     float64
	MinimumFPS     float64
	GPUTimeMs      float64
	RenderThreadMs float64
	DrawCalls      int
	Triangles      int

	// Memory
	PhysicalMemoryMB float64
	VirtualMemoryMB  float64
	TextureMemoryMB  float64

	// Network
	NetworkLatencyMs float64
	PacketsPerSec    float64
	BandwidthKBps    float64

	// Contested-zone figures forwarded from the siege monitor
	ActiveZones       int
	ZoneQueryMs       float64
	ZoneUpdatesPerSec float64
}

// FrameStats is the per-frame timing block polled from the session host.
type FrameStats struct {
	DeltaMs        float64
	RenderThreadMs float64
	DrawCalls      int
	Triangles      int
}

// MemoryStats holds the host's current memory counters in megabytes.
type MemoryStats struct {
	PhysicalMB float64
	VirtualMB  float64
	TextureMB  float64
}

// NetworkStats holds the current peer's connection figures.
type NetworkStats struct {
	LatencyMs     float64
	PacketsPerSec float64
	BandwidthKBps float64
}

// ZoneFigures are the contested-zone costs reported by the siege monitor.
type ZoneFigures struct {
	ActiveZones   int
	QueryMs       float64
	UpdatesPerSec float64
}
