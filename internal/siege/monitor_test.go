package siege

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/siegewar/perfctl/internal/alert"
	"github.com/siegewar/perfctl/internal/perf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot perf.Snapshot
}

func (f *fakeSource) LatestSnapshot() perf.Snapshot { return f.snapshot }

type fakeSink struct {
	mu      sync.Mutex
	records []Record
}

func (f *fakeSink) RecordSiegePerformance(record Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)

	return nil
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (f *fakeBroadcaster) Broadcast(snapshot Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
}

func TestStartStopProducesOneRecord(t *testing.T) {
	source := &fakeSource{snapshot: perf.Snapshot{AverageFPS: 75, NetworkLatencyMs: 30}}
	sink := &fakeSink{}
	m := NewMonitor(64, source, sink)

	m.StartMonitoring("fortress-14")
	require.True(t, m.IsActive())

	m.tick()
	m.StopMonitoring(true)

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, "fortress-14", record.SessionID)
	assert.Equal(t, 75.0, record.AverageFPS)
	assert.Equal(t, 30.0, record.PeakLatencyMs)
	assert.True(t, record.Victory)
	assert.True(t, record.StartTime.Before(record.EndTime))
	assert.False(t, m.IsActive())
}

func TestStartGeneratesSessionID(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})

	m.StartMonitoring("")

	assert.NotEmpty(t, m.CurrentSnapshot().SessionID)
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	sink := &fakeSink{}
	m := NewMonitor(64, &fakeSource{}, sink)

	m.StartMonitoring("first")
	m.StartMonitoring("second")

	assert.Equal(t, "first", m.CurrentSnapshot().SessionID)

	m.StopMonitoring(false)
	assert.Len(t, sink.records, 1)
	assert.Equal(t, "first", sink.records[0].SessionID)
}

func TestStopWhileInactiveIsNoop(t *testing.T) {
	sink := &fakeSink{}
	m := NewMonitor(64, &fakeSource{}, sink)

	m.StopMonitoring(false)

	assert.Empty(t, sink.records)
}

func TestRecordCallsIgnoredWhenInactive(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})

	m.RecordPhaseTransition("preparation", "assault", 1500)
	m.RecordTicketUpdate(3)

	s := m.CurrentSnapshot()
	assert.Zero(t, s.PhaseTransitionMs)
	assert.Zero(t, s.TicketUpdateMs)
}

func TestTicketUpdateAverage(t *testing.T) {
	m := NewMonitor(256, &fakeSource{}, &fakeSink{})
	m.StartMonitoring("s")

	for i := 0; i < 120; i++ {
		if i%2 == 0 {
			m.RecordTicketUpdate(3)
		} else {
			m.RecordTicketUpdate(7)
		}
	}

	assert.InDelta(t, 5.0, m.AverageTicketUpdateTime(), 0.001)
}

func TestTargetsMet(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})
	m.StartMonitoring("s")

	m.RecordPhaseTransition("preparation", "assault", 800)
	m.RecordDominanceCalculation(5)
	m.RecordTicketUpdate(2)
	m.RecordNetworkActivity(40, 512)
	assert.True(t, m.TargetsMet())

	// One slow dominance recompute stays in the window and fails the
	// check until it ages out.
	m.RecordDominanceCalculation(30)
	assert.False(t, m.TargetsMet())
}

func TestTickRaisesEventLocalAlerts(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})

	var received []alert.Alert
	m.SetAlertSink(func(a alert.Alert) { received = append(received, a) })

	m.StartMonitoring("s")
	m.RecordTicketUpdate(9)
	m.tick()

	require.Len(t, received, 1)
	assert.Equal(t, MetricTicketUpdate, received[0].Subsystem)
	assert.Equal(t, alert.SeverityCritical, received[0].Severity)
	assert.Len(t, m.ActiveAlerts(), 1)

	// Still firing; no duplicate on the next tick.
	m.tick()
	assert.Len(t, received, 1)
}

func TestTickBroadcastsToMirror(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})
	m.SetMirror(broadcaster)

	m.StartMonitoring("mirrored")
	m.RecordNetworkActivity(40, 512)
	m.tick()

	require.Len(t, broadcaster.snapshots, 1)
	s := broadcaster.snapshots[0]
	assert.Equal(t, "mirrored", s.SessionID)
	assert.True(t, s.Active)
	assert.Equal(t, 40.0, s.MessagesPerSec)
}

func TestTickTracksPeakLatency(t *testing.T) {
	source := &fakeSource{snapshot: perf.Snapshot{NetworkLatencyMs: 80}}
	sink := &fakeSink{}
	m := NewMonitor(64, source, sink)

	m.StartMonitoring("s")
	m.tick()

	source.snapshot.NetworkLatencyMs = 150
	m.tick()

	source.snapshot.NetworkLatencyMs = 60
	m.tick()

	m.StopMonitoring(false)

	require.Len(t, sink.records, 1)
	assert.Equal(t, 150.0, sink.records[0].PeakLatencyMs)
}

func TestStartResetsHistories(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})

	m.StartMonitoring("first")
	m.RecordTicketUpdate(9)
	m.StopMonitoring(false)

	m.StartMonitoring("second")
	assert.Zero(t, m.AverageTicketUpdateTime())
	assert.Empty(t, m.ActiveAlerts())
}

func TestZoneFiguresForwarding(t *testing.T) {
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})
	m.StartMonitoring("s")

	m.SetActiveZones(6)
	m.RecordDominanceCalculation(1.2)

	figures := m.ZoneFigures()
	assert.Equal(t, 6, figures.ActiveZones)
	assert.InDelta(t, 1.2, figures.QueryMs, 0.001)
}

type steadyHost struct{}

func (steadyHost) FrameStats() perf.FrameStats   { return perf.FrameStats{DeltaMs: 16.67} }
func (steadyHost) MemoryStats() perf.MemoryStats { return perf.MemoryStats{PhysicalMB: 4096} }
func (steadyHost) NetworkStats() (perf.NetworkStats, bool) {
	return perf.NetworkStats{LatencyMs: 45}, true
}

type steadyGPU struct{}

func (steadyGPU) Measure() float64 { return 4.2 }

// The collector samples while the monitor ticks against it, each side
// reading the other through its public surface. Both loops must keep
// making progress.
func TestConcurrentSamplingAndTicking(t *testing.T) {
	collector := perf.NewCollector(steadyHost{}, steadyGPU{}, 32)
	defer collector.Close()

	m := NewMonitor(64, collector, &fakeSink{})
	collector.BindZoneSource(m)

	m.StartMonitoring("contested")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		m.Run(ctx, time.Millisecond)
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 200; i++ {
			collector.Sample()
			m.RecordDominanceCalculation(1.5)
			time.Sleep(100 * time.Microsecond)
		}
		m.StopMonitoring(true)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("sampling and tick loops stopped making progress")
	}

	assert.False(t, m.IsActive())
}

func TestTickIgnoredWhenInactive(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	m := NewMonitor(64, &fakeSource{}, &fakeSink{})
	m.SetMirror(broadcaster)

	m.tick()

	assert.Empty(t, broadcaster.snapshots)
}
