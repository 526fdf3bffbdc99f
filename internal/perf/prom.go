package perf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// promGauges exposes the live snapshot to external scrapers.
type promGauges struct {
	registry *prometheus.Registry

	fps         prometheus.Gauge
	frameTime   prometheus.Gauge
	gpuTime     prometheus.Gauge
	memory      prometheus.Gauge
	netLatency  prometheus.Gauge
	zoneQuery   prometheus.Gauge
	activeZones prometheus.Gauge
}

func newPromGauges() *promGauges {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &promGauges{
		registry: registry,
		fps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_fps",
			Help: "Current frames per second",
		}),
		frameTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_frame_time_ms",
			Help: "Current frame time in milliseconds",
		}),
		gpuTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_gpu_time_ms",
			Help: "Last completed GPU frame timing in milliseconds",
		}),
		memory: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_physical_memory_mb",
			Help: "Used physical memory in megabytes",
		}),
		netLatency: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_network_latency_ms",
			Help: "Current peer round-trip latency in milliseconds",
		}),
		zoneQuery: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_zone_query_ms",
			Help: "Contested-zone query latency in milliseconds",
		}),
		activeZones: factory.NewGauge(prometheus.GaugeOpts{
			Name: "perfctl_active_zones",
			Help: "Number of active contested zones",
		}),
	}
}

func (p *promGauges) update(s Snapshot) {
	p.fps.Set(s.FPS)
	p.frameTime.Set(s.FrameTimeMs)
	p.gpuTime.Set(s.GPUTimeMs)
	p.memory.Set(s.PhysicalMemoryMB)
	p.netLatency.Set(s.NetworkLatencyMs)
	p.zoneQuery.Set(s.ZoneQueryMs)
	p.activeZones.Set(float64(s.ActiveZones))
}
