// Package siege runs a second, independently-cadenced sampling loop
// scoped to one contested-territory siege event. Its thresholds are
// tighter than the global ones and are checked on purpose in addition
// to the alerts the global manager derives from the forwarded figures.
package siege

import "time"

// Event-local thresholds. Violations raise event-scoped alerts
// independent of the global alert manager.
const (
	PhaseTransitionThresholdMs = 2000
	DominanceCalcThresholdMs   = 16.67
	TicketUpdateThresholdMs    = 5
	MessageRateThreshold       = 100
	BandwidthThresholdKBps     = 1024
)

// Sub-metric names used to tag event-scoped alerts.
const (
	MetricPhaseTransition = "siege_phase_transition"
	MetricDominanceCalc   = "siege_dominance_calc"
	MetricTicketUpdate    = "siege_ticket_update"
	MetricMessageRate     = "siege_message_rate"
	MetricBandwidth       = "siege_bandwidth"
)

// Snapshot mirrors the monitor's current state to observers. Remote
// participants receive it one-way; they never write back.
type Snapshot struct {
	SessionID            string    `json:"session_id"`
	Active               bool      `json:"active"`
	PhaseTransitionMs    float64   `json:"phase_transition_ms"`
	AvgPhaseTransitionMs float64   `json:"avg_phase_transition_ms"`
	DominanceCalcMs      float64   `json:"dominance_calc_ms"`
	AvgDominanceCalcMs   float64   `json:"avg_dominance_calc_ms"`
	TicketUpdateMs       float64   `json:"ticket_update_ms"`
	AvgTicketUpdateMs    float64   `json:"avg_ticket_update_ms"`
	MessagesPerSec       float64   `json:"messages_per_sec"`
	BandwidthKBps        float64   `json:"bandwidth_kbps"`
	ActiveZones          int       `json:"active_zones"`
	TicketUpdatesPerSec  float64   `json:"ticket_updates_per_sec"`
	TargetsMet           bool      `json:"targets_met"`
	Timestamp            time.Time `json:"timestamp"`
}

// Record is the durable per-session summary handed to the store when a
// session ends. Historical record; never mutated after creation.
type Record struct {
	SessionID     string
	StartTime     time.Time
	EndTime       time.Time
	AverageFPS    float64
	PeakLatencyMs float64
	Victory       bool
}

// RecordSink archives finalized session records. The sqlite store
// implements it.
type RecordSink interface {
	RecordSiegePerformance(record Record) error
}

// Broadcaster pushes snapshots to remote observers.
type Broadcaster interface {
	Broadcast(snapshot Snapshot)
}
