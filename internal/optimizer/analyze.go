package optimizer

import (
	"fmt"

	"github.com/siegewar/perfctl/internal/alert"
)

// AnalyzeBottlenecks is a read-only diagnostic pass producing
// human-readable recommendations from the same threshold comparisons
// the alert manager runs. It never mutates settings and works whether
// or not automatic optimization is enabled.
func (o *Optimizer) AnalyzeBottlenecks() []string {
	s := o.source.LatestSnapshot()
	thresholds := alert.DefaultThresholds()

	var recommendations []string

	if t := thresholds[alert.SubsystemFrameRate]; s.FPS > 0 && s.FPS <= t.Critical {
		recommendations = append(recommendations,
			fmt.Sprintf("Frame rate %.1f FPS is below the critical bound of %.1f; reduce shadow quality and view distance", s.FPS, t.Critical))
	} else if s.FPS > 0 && s.FPS <= t.Warning {
		recommendations = append(recommendations,
			fmt.Sprintf("Frame rate %.1f FPS is below the target of %.1f; consider trimming render settings", s.FPS, t.Warning))
	}

	if s.GPUTimeMs > s.FrameTimeMs*0.8 && s.GPUTimeMs > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("GPU time %.2f ms dominates the %.2f ms frame; the workload is GPU-bound, enable dynamic resolution", s.GPUTimeMs, s.FrameTimeMs))
	}

	if t := thresholds[alert.SubsystemMemory]; s.PhysicalMemoryMB >= t.Warning {
		recommendations = append(recommendations,
			fmt.Sprintf("Physical memory %.0f MB exceeds %.0f MB; shrink the texture pool and relax GC cadence", s.PhysicalMemoryMB, t.Warning))
	}

	if t := thresholds[alert.SubsystemNetworkLatency]; s.NetworkLatencyMs >= t.Warning {
		recommendations = append(recommendations,
			fmt.Sprintf("Network latency %.0f ms exceeds %.0f ms; tighten culling distance and enable delta compression", s.NetworkLatencyMs, t.Warning))
	}

	if t := thresholds[alert.SubsystemZoneQuery]; s.ZoneQueryMs >= t.Warning {
		recommendations = append(recommendations,
			fmt.Sprintf("Contested-zone queries take %.2f ms; enable query caching and spatial partitioning", s.ZoneQueryMs))
	}

	if s.DrawCalls > 5000 {
		recommendations = append(recommendations,
			fmt.Sprintf("%d draw calls this frame; force a LOD bias to cut batch count", s.DrawCalls))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "No bottlenecks detected; all metrics within bounds")
	}

	return recommendations
}
