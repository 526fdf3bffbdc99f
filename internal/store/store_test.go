package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/siegewar/perfctl/internal/perf"
	"github.com/siegewar/perfctl/internal/siege"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	return Config{
		DBPath:       filepath.Join(t.TempDir(), "perfctl.db"),
		BatchSize:    2,
		BatchTimeout: 60,
		Enabled:      true,
	}
}

func testRecord(id string, fps, latency float64, victory bool) siege.Record {
	start := time.Now().Add(-30 * time.Minute)

	return siege.Record{
		SessionID:     id,
		StartTime:     start,
		EndTime:       start.Add(25 * time.Minute),
		AverageFPS:    fps,
		PeakLatencyMs: latency,
		Victory:       victory,
	}
}

func TestSiegeRecordRoundTrip(t *testing.T) {
	repo, err := New(testConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	record := testRecord("keep-42", 72.5, 110, true)
	require.NoError(t, repo.RecordSiegePerformance(record))

	records, err := repo.RecentHistory(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, record.SessionID, got.SessionID)
	assert.Equal(t, record.AverageFPS, got.AverageFPS)
	assert.Equal(t, record.PeakLatencyMs, got.PeakLatencyMs)
	assert.True(t, got.Victory)
	assert.Equal(t, record.StartTime.Unix(), got.StartTime.Unix())
	assert.Equal(t, record.EndTime.Unix(), got.EndTime.Unix())
}

func TestRecentHistoryNewestFirst(t *testing.T) {
	repo, err := New(testConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	older := testRecord("older", 60, 90, false)
	newer := testRecord("newer", 80, 70, true)
	newer.EndTime = older.EndTime.Add(time.Hour)

	require.NoError(t, repo.RecordSiegePerformance(older))
	require.NoError(t, repo.RecordSiegePerformance(newer))

	records, err := repo.RecentHistory(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "newer", records[0].SessionID)
}

func TestAggregateQueries(t *testing.T) {
	repo, err := New(testConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.RecordSiegePerformance(testRecord("a", 60, 100, false)))
	require.NoError(t, repo.RecordSiegePerformance(testRecord("b", 80, 50, true)))

	avgFPS, err := repo.AverageFPS()
	require.NoError(t, err)
	assert.InDelta(t, 70.0, avgFPS, 0.001)

	avgLatency, err := repo.AverageLatency()
	require.NoError(t, err)
	assert.InDelta(t, 75.0, avgLatency, 0.001)
}

func TestAggregateQueriesEmptyDatabase(t *testing.T) {
	repo, err := New(testConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	avgFPS, err := repo.AverageFPS()
	require.NoError(t, err)
	assert.Zero(t, avgFPS)
}

func TestSnapshotsFlushOnClose(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100 // keep everything buffered until Close

	repo, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.ArchiveSnapshot(perf.Snapshot{
			Timestamp: time.Now(),
			FPS:       60,
		}))
	}
	require.NoError(t, repo.Close())

	// Reopen and confirm the buffered rows were written.
	reopened, err := New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	concrete, ok := reopened.(*repository)
	require.True(t, ok)

	var count int
	require.NoError(t, concrete.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count))
	assert.Equal(t, 5, count)
}

func TestDisabledStoreIsNoop(t *testing.T) {
	repo, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, repo.RecordSiegePerformance(siege.Record{}))
	records, err := repo.RecentHistory(5)
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, repo.Close())
}

func TestEnabledWithoutPathFails(t *testing.T) {
	_, err := New(Config{Enabled: true})

	assert.Error(t, err)
}

func TestSchemaVersionPersisted(t *testing.T) {
	cfg := testConfig(t)

	repo, err := New(cfg)
	require.NoError(t, err)

	concrete, ok := repo.(*repository)
	require.True(t, ok)

	version, err := GetSchemaVersion(concrete.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	require.NoError(t, repo.Close())
}
