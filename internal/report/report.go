// Package report serializes rolling history and summary statistics to
// a flat comma-separated file for offline analysis.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/siegewar/perfctl/internal/errors"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
)

// Tracker accumulates peak figures across a session so the exported
// summary does not depend on what is still in the rolling window.
type Tracker struct {
	mu            sync.Mutex
	peakGPUTimeMs float64
	peakMemoryMB  float64
	peakLatencyMs float64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe folds one snapshot into the running peaks.
func (t *Tracker) Observe(s perf.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.GPUTimeMs > t.peakGPUTimeMs {
		t.peakGPUTimeMs = s.GPUTimeMs
	}
	if s.PhysicalMemoryMB > t.peakMemoryMB {
		t.peakMemoryMB = s.PhysicalMemoryMB
	}
	if s.NetworkLatencyMs > t.peakLatencyMs {
		t.peakLatencyMs = s.NetworkLatencyMs
	}
}

// Export writes the rolling history with a header row and a trailing
// summary block. The two slices are index-aligned, oldest first.
func (t *Tracker) Export(path string, frameTimes, fps []float64) error {
	errFactory := errors.New()

	file, err := os.Create(path)
	if err != nil {
		return errFactory.Wrap(errors.ErrExportReport, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"tick", "frame_time_ms", "fps"}); err != nil {
		return errFactory.Wrap(errors.ErrExportReport, err)
	}

	var avgFPS, minFPS float64
	for i, ft := range frameTimes {
		var f float64
		if i < len(fps) {
			f = fps[i]
		}
		if err := w.Write([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.3f", ft),
			fmt.Sprintf("%.2f", f),
		}); err != nil {
			return errFactory.Wrap(errors.ErrExportReport, err)
		}
	}

	for i, f := range fps {
		avgFPS += f
		if i == 0 || f < minFPS {
			minFPS = f
		}
	}
	if len(fps) > 0 {
		avgFPS /= float64(len(fps))
	}

	t.mu.Lock()
	summary := [][]string{
		{"summary", "average_fps", fmt.Sprintf("%.2f", avgFPS)},
		{"summary", "minimum_fps", fmt.Sprintf("%.2f", minFPS)},
		{"summary", "peak_gpu_time_ms", fmt.Sprintf("%.3f", t.peakGPUTimeMs)},
		{"summary", "peak_memory_mb", fmt.Sprintf("%.1f", t.peakMemoryMB)},
		{"summary", "peak_latency_ms", fmt.Sprintf("%.1f", t.peakLatencyMs)},
	}
	t.mu.Unlock()

	for _, row := range summary {
		if err := w.Write(row); err != nil {
			return errFactory.Wrap(errors.ErrExportReport, err)
		}
	}

	logger.Info().Str("path", path).Int("samples", len(frameTimes)).Msg("Performance report exported")

	return nil
}
