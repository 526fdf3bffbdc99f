package siege

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siegewar/perfctl/internal/alert"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
)

// SnapshotSource supplies the collector's latest global snapshot for
// the finalized record's FPS and latency figures.
type SnapshotSource interface {
	LatestSnapshot() perf.Snapshot
}

// AlertSink receives event-scoped alerts.
type AlertSink func(alert.Alert)

// Monitor tracks siege-specific costs against event-local thresholds.
// The session cache is written by the host thread and read by the tick
// loop and ad hoc queries, so a mutex guards it.
type Monitor struct {
	source SnapshotSource
	store  RecordSink

	mu          sync.Mutex
	mirror      Broadcaster
	alerts      AlertSink
	capacity    int
	active      bool
	sessionID   string
	startTime   time.Time
	phase       *perf.History[float64]
	dominance   *perf.History[float64]
	tickets     *perf.History[float64]
	messages    *perf.History[float64]
	bandwidth   *perf.History[float64]
	current     Snapshot
	activeLocal map[string]alert.Alert
	peakLatency float64
	ticketsTick int
	lastTick    time.Time
}

func NewMonitor(historyCapacity int, source SnapshotSource, store RecordSink) *Monitor {
	return &Monitor{
		source:      source,
		store:       store,
		capacity:    historyCapacity,
		phase:       perf.NewHistory[float64](historyCapacity),
		dominance:   perf.NewHistory[float64](historyCapacity),
		tickets:     perf.NewHistory[float64](historyCapacity),
		messages:    perf.NewHistory[float64](historyCapacity),
		bandwidth:   perf.NewHistory[float64](historyCapacity),
		activeLocal: make(map[string]alert.Alert),
	}
}

// SetMirror attaches the observer broadcast channel.
func (m *Monitor) SetMirror(b Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mirror = b
}

// SetAlertSink attaches the event-scoped alert outlet.
func (m *Monitor) SetAlertSink(sink AlertSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = sink
}

// StartMonitoring begins a session, resetting all rolling histories.
// Starting while a session is active is a no-op with a warning.
func (m *Monitor) StartMonitoring(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		logger.Warn().
			Str("session_id", m.sessionID).
			Msg("Siege monitoring already active, ignoring start")

		return
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.active = true
	m.sessionID = sessionID
	m.startTime = time.Now()
	m.peakLatency = 0
	m.ticketsTick = 0
	m.lastTick = m.startTime
	m.phase.Reset()
	m.dominance.Reset()
	m.tickets.Reset()
	m.messages.Reset()
	m.bandwidth.Reset()
	m.current = Snapshot{SessionID: sessionID, Active: true, Timestamp: m.startTime}
	m.activeLocal = make(map[string]alert.Alert)

	logger.Info().Str("session_id", sessionID).Msg("Siege monitoring started")
}

// StopMonitoring finalizes the session and hands exactly one Record to
// the durable store. Stopping while inactive is a no-op.
func (m *Monitor) StopMonitoring(victory bool) {
	// LatestSnapshot takes the collector's lock, and Sample calls back
	// into ZoneFigures. Fetch it before m.mu to keep one lock order.
	global := m.source.LatestSnapshot()

	m.mu.Lock()

	if !m.active {
		m.mu.Unlock()
		logger.Debug().Msg("Siege monitoring not active, ignoring stop")

		return
	}

	record := Record{
		SessionID:     m.sessionID,
		StartTime:     m.startTime,
		EndTime:       time.Now(),
		AverageFPS:    global.AverageFPS,
		PeakLatencyMs: m.peakLatency,
		Victory:       victory,
	}

	m.active = false
	m.current.Active = false
	store := m.store
	m.mu.Unlock()

	if store != nil {
		if err := store.RecordSiegePerformance(record); err != nil {
			logger.Error().Err(err).
				Str("session_id", record.SessionID).
				Msg("Failed to archive siege performance record")
		}
	}

	logger.Info().
		Str("session_id", record.SessionID).
		Float64("avg_fps", record.AverageFPS).
		Float64("peak_latency_ms", record.PeakLatencyMs).
		Bool("victory", record.Victory).
		Msg("Siege monitoring stopped")
}

// RecordPhaseTransition notes how long a siege phase change took.
// Fire-and-forget; no failure is signaled to the caller.
func (m *Monitor) RecordPhaseTransition(from, to string, durationMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}

	m.phase.Push(durationMs)
	m.current.PhaseTransitionMs = durationMs
	m.current.AvgPhaseTransitionMs = m.phase.Average()

	logger.Debug().
		Str("from", from).
		Str("to", to).
		Float64("duration_ms", durationMs).
		Msg("Siege phase transition")
}

// RecordDominanceCalculation notes one contested-value recompute.
func (m *Monitor) RecordDominanceCalculation(durationMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}

	m.dominance.Push(durationMs)
	m.current.DominanceCalcMs = durationMs
	m.current.AvgDominanceCalcMs = m.dominance.Average()
}

// RecordTicketUpdate notes one ticket-counter mutation.
func (m *Monitor) RecordTicketUpdate(durationMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}

	m.tickets.Push(durationMs)
	m.ticketsTick++
	m.current.TicketUpdateMs = durationMs
	m.current.AvgTicketUpdateMs = m.tickets.Average()
}

// RecordNetworkActivity notes the current replication message rate and
// bandwidth estimate.
func (m *Monitor) RecordNetworkActivity(messagesPerSec, bandwidthKBps float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}

	m.messages.Push(messagesPerSec)
	m.bandwidth.Push(bandwidthKBps)
	m.current.MessagesPerSec = messagesPerSec
	m.current.BandwidthKBps = bandwidthKBps
}

// SetActiveZones updates the contested-zone count reported by the
// territorial subsystem.
func (m *Monitor) SetActiveZones(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.ActiveZones = count
}

// Run drives the monitor's own cadence, independent of the collector's
// tick, until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick refreshes the targets-met flag, checks event-local thresholds
// and emits the current state to observers.
func (m *Monitor) tick() {
	latency := m.source.LatestSnapshot().NetworkLatencyMs

	m.mu.Lock()

	if !m.active {
		m.mu.Unlock()

		return
	}

	now := time.Now()
	elapsed := now.Sub(m.lastTick).Seconds()
	if elapsed > 0 {
		m.current.TicketUpdatesPerSec = float64(m.ticketsTick) / elapsed
	}
	m.ticketsTick = 0
	m.lastTick = now

	if latency > m.peakLatency {
		m.peakLatency = latency
	}

	m.current.TargetsMet = m.targetsMetLocked()
	m.current.Timestamp = now
	m.refreshLocalAlertsLocked(now)

	snapshot := m.current
	mirror := m.mirror
	m.mu.Unlock()

	if mirror != nil {
		mirror.Broadcast(snapshot)
	}
}

// targetsMetLocked is the AND of all five event-local threshold checks.
func (m *Monitor) targetsMetLocked() bool {
	return m.phase.Max() < PhaseTransitionThresholdMs &&
		m.dominance.Max() < DominanceCalcThresholdMs &&
		m.tickets.Max() < TicketUpdateThresholdMs &&
		m.current.MessagesPerSec < MessageRateThreshold &&
		m.current.BandwidthKBps < BandwidthThresholdKBps
}

// refreshLocalAlertsLocked keeps one event-scoped alert per violating
// sub-metric, resolving it once the rolling window clears.
func (m *Monitor) refreshLocalAlertsLocked(now time.Time) {
	checks := []struct {
		metric    string
		value     float64
		threshold float64
	}{
		{MetricPhaseTransition, m.phase.Max(), PhaseTransitionThresholdMs},
		{MetricDominanceCalc, m.dominance.Max(), DominanceCalcThresholdMs},
		{MetricTicketUpdate, m.tickets.Max(), TicketUpdateThresholdMs},
		{MetricMessageRate, m.current.MessagesPerSec, MessageRateThreshold},
		{MetricBandwidth, m.current.BandwidthKBps, BandwidthThresholdKBps},
	}

	for _, check := range checks {
		if check.value < check.threshold {
			delete(m.activeLocal, check.metric)

			continue
		}

		if _, firing := m.activeLocal[check.metric]; firing {
			continue
		}

		raised := alert.Alert{
			Subsystem: check.metric,
			Severity:  alert.SeverityCritical,
			Message:   fmt.Sprintf("%s exceeded event-local threshold", check.metric),
			Value:     check.value,
			Threshold: check.threshold,
			CreatedAt: now,
		}
		m.activeLocal[check.metric] = raised

		if m.alerts != nil {
			m.alerts(raised)
		}
	}
}

// CurrentSnapshot returns the monitor's current mirrored state.
func (m *Monitor) CurrentSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

// ActiveAlerts returns the event-scoped alerts currently firing.
func (m *Monitor) ActiveAlerts() []alert.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]alert.Alert, 0, len(m.activeLocal))
	for _, a := range m.activeLocal {
		out = append(out, a)
	}

	return out
}

// AverageTicketUpdateTime returns the rolling mean ticket update cost.
func (m *Monitor) AverageTicketUpdateTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tickets.Average()
}

// TargetsMet reports whether all five event-local checks pass.
func (m *Monitor) TargetsMet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.targetsMetLocked()
}

// IsActive reports whether a session is currently monitored.
func (m *Monitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active
}

// ZoneFigures implements perf.ZoneSource, forwarding the siege figures
// into the collector's snapshot so the global alert manager can also
// fire from them.
func (m *Monitor) ZoneFigures() perf.ZoneFigures {
	m.mu.Lock()
	defer m.mu.Unlock()

	return perf.ZoneFigures{
		ActiveZones:   m.current.ActiveZones,
		QueryMs:       m.current.AvgDominanceCalcMs,
		UpdatesPerSec: m.current.TicketUpdatesPerSec,
	}
}
