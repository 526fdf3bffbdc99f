package alert

import (
	"fmt"
	"sync"

	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
)

// Manager evaluates each new snapshot against the configured
// thresholds. At most one alert is active per subsystem; its severity
// tracks the metric as it escalates or recovers.
type Manager struct {
	mu         sync.RWMutex
	thresholds map[string]Threshold
	active     map[string]*Alert
	subs       []chan Alert
}

func NewManager(thresholds map[string]Threshold) *Manager {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}

	return &Manager{
		thresholds: thresholds,
		active:     make(map[string]*Alert),
	}
}

// Evaluate runs the threshold pass for one snapshot. Resolution runs
// before creation so a metric can resolve and immediately re-trigger a
// different severity within the same tick.
func (m *Manager) Evaluate(s perf.Snapshot) {
	values := metricValues(s)

	m.mu.Lock()
	var raised []Alert

	// Resolution pass: drop alerts whose metric returned within the
	// bound it violated.
	for subsystem, active := range m.active {
		t := m.thresholds[subsystem]
		if !t.violates(values[subsystem], t.Bound(active.Severity)) {
			delete(m.active, subsystem)
			logger.Info().
				Str("subsystem", subsystem).
				Str("severity", active.Severity.String()).
				Float64("value", values[subsystem]).
				Msg("Alert resolved")
		}
	}

	// Creation pass.
	for subsystem, t := range m.thresholds {
		value := values[subsystem]
		if t.LowerIsWorse && value == 0 {
			// Missing sub-reading, substituted default. Not a violation.
			continue
		}
		severity, violated := t.Classify(value)
		if !violated {
			continue
		}

		if active, ok := m.active[subsystem]; ok {
			if active.Severity == severity {
				// Same alert still firing; refresh the observed value.
				active.Value = value
				continue
			}
			delete(m.active, subsystem)
		}

		created := &Alert{
			Subsystem: subsystem,
			Severity:  severity,
			Message:   fmt.Sprintf("%s %s threshold violated", subsystem, severity),
			Value:     value,
			Threshold: t.Bound(severity),
			CreatedAt: s.Timestamp,
		}
		m.active[subsystem] = created
		raised = append(raised, *created)
	}

	subs := m.subs
	m.mu.Unlock()

	for _, a := range raised {
		logger.Warn().
			Str("subsystem", a.Subsystem).
			Str("severity", a.Severity.String()).
			Float64("value", a.Value).
			Float64("threshold", a.Threshold).
			Msg("Alert raised")
		broadcast(subs, a)
	}
}

// Active returns a copy of the currently firing alerts.
func (m *Manager) Active() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Alert, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, *a)
	}

	return out
}

// HasCritical reports whether any active alert is critical or worse.
func (m *Manager) HasCritical() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.active {
		if a.Severity >= SeverityCritical {
			return true
		}
	}

	return false
}

// Subscribe returns a channel receiving every newly raised alert.
// Slow consumers drop alerts rather than stall the evaluation pass.
func (m *Manager) Subscribe() <-chan Alert {
	ch := make(chan Alert, 16)

	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	return ch
}

// Broadcast forwards an externally produced alert to all subscribers.
// The siege monitor uses it for event-local threshold violations,
// which are tracked independently of this manager's alert set.
func (m *Manager) Broadcast(a Alert) {
	m.mu.RLock()
	subs := m.subs
	m.mu.RUnlock()

	broadcast(subs, a)
}

func broadcast(subs []chan Alert, a Alert) {
	for _, ch := range subs {
		select {
		case ch <- a:
		default:
		}
	}
}

// metricValues extracts the monitored figures from a snapshot.
func metricValues(s perf.Snapshot) map[string]float64 {
	return map[string]float64{
		SubsystemFrameRate:      s.FPS,
		SubsystemFrameTime:      s.FrameTimeMs,
		SubsystemMemory:         s.PhysicalMemoryMB,
		SubsystemNetworkLatency: s.NetworkLatencyMs,
		SubsystemZoneQuery:      s.ZoneQueryMs,
	}
}
