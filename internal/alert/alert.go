// Package alert converts performance snapshots into a self-resolving
// alert set evaluated against per-metric threshold triples.
package alert

import "time"

// Severity classifies how far a metric is out of bound.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityCritical
	SeverityEmergency
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	case SeverityEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Alert is a live record that a metric currently violates its
// configured threshold. It resolves itself once a later snapshot
// returns the metric to within bound.
type Alert struct {
	Subsystem string
	Severity  Severity
	Message   string
	Value     float64
	Threshold float64
	CreatedAt time.Time
}

// Threshold holds explicit per-severity bounds for one metric.
// Emergency defaults to twice the critical bound but stays an
// independent value so reconfiguration cannot surprise.
type Threshold struct {
	Warning   float64
	Critical  float64
	Emergency float64
	// LowerIsWorse flips the comparison for metrics like FPS where
	// falling below the bound is the violation.
	LowerIsWorse bool
}

// Classify returns the severity a value triggers, or false when the
// value is within bound.
func (t Threshold) Classify(value float64) (Severity, bool) {
	if t.violates(value, t.Emergency) {
		return SeverityEmergency, true
	}
	if t.violates(value, t.Critical) {
		return SeverityCritical, true
	}
	if t.violates(value, t.Warning) {
		return SeverityWarning, true
	}

	return 0, false
}

// Bound returns the configured bound for a severity.
func (t Threshold) Bound(severity Severity) float64 {
	switch severity {
	case SeverityCritical:
		return t.Critical
	case SeverityEmergency:
		return t.Emergency
	default:
		return t.Warning
	}
}

func (t Threshold) violates(value, bound float64) bool {
	if t.LowerIsWorse {
		return value <= bound
	}

	return value >= bound
}
