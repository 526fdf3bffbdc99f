package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/siegewar/perfctl/internal/perf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportToFile(t *testing.T, tracker *Tracker, frameTimes, fps []float64) [][]string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, tracker.Export(path, frameTimes, fps))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	return rows
}

func TestExportLayout(t *testing.T) {
	tracker := NewTracker()
	tracker.Observe(perf.Snapshot{GPUTimeMs: 9.5, PhysicalMemoryMB: 5000, NetworkLatencyMs: 80})
	tracker.Observe(perf.Snapshot{GPUTimeMs: 7.0, PhysicalMemoryMB: 6200, NetworkLatencyMs: 40})

	rows := exportToFile(t, tracker,
		[]float64{16.67, 20.0, 25.0},
		[]float64{60.0, 50.0, 40.0},
	)

	// Header, three data rows, five summary rows.
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"tick", "frame_time_ms", "fps"}, rows[0])
	assert.Equal(t, []string{"0", "16.670", "60.00"}, rows[1])
	assert.Equal(t, []string{"2", "25.000", "40.00"}, rows[3])

	assert.Equal(t, []string{"summary", "average_fps", "50.00"}, rows[4])
	assert.Equal(t, []string{"summary", "minimum_fps", "40.00"}, rows[5])
	assert.Equal(t, []string{"summary", "peak_gpu_time_ms", "9.500"}, rows[6])
	assert.Equal(t, []string{"summary", "peak_memory_mb", "6200.0"}, rows[7])
	assert.Equal(t, []string{"summary", "peak_latency_ms", "80.0"}, rows[8])
}

func TestExportEmptyHistory(t *testing.T) {
	rows := exportToFile(t, NewTracker(), nil, nil)

	require.Len(t, rows, 6)
	assert.Equal(t, []string{"tick", "frame_time_ms", "fps"}, rows[0])
	assert.Equal(t, []string{"summary", "average_fps", "0.00"}, rows[1])
}

func TestExportBadPath(t *testing.T) {
	err := NewTracker().Export(filepath.Join(t.TempDir(), "missing", "report.csv"), nil, nil)

	assert.Error(t, err)
}
