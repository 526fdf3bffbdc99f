package alert

// Monitored subsystems. Zone query figures are also checked by the
// siege monitor against its own tighter event-local thresholds; the
// duplication is deliberate.
const (
	SubsystemFrameRate      = "frame_rate"
	SubsystemFrameTime      = "frame_time"
	SubsystemMemory         = "memory"
	SubsystemNetworkLatency = "network_latency"
	SubsystemZoneQuery      = "zone_query"
)

const memoryBudgetMB = 8192

// DefaultThresholds returns the stock threshold set. Emergency bounds
// are twice (half, for frame rate) the critical bound.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		SubsystemFrameRate: {
			Warning:      60,
			Critical:     45,
			Emergency:    22.5,
			LowerIsWorse: true,
		},
		SubsystemFrameTime: {
			Warning:   16.67,
			Critical:  25,
			Emergency: 50,
		},
		SubsystemMemory: {
			Warning:   memoryBudgetMB * 0.8,
			Critical:  memoryBudgetMB,
			Emergency: memoryBudgetMB * 2,
		},
		SubsystemNetworkLatency: {
			Warning:   50,
			Critical:  100,
			Emergency: 200,
		},
		SubsystemZoneQuery: {
			Warning:   1,
			Critical:  2,
			Emergency: 4,
		},
	}
}
