// Package optimizer translates critical performance alerts into
// ordered, reversible configuration changes chosen from escalating
// risk tiers.
package optimizer

import (
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/siegewar/perfctl/internal/alert"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/perf"
)

// Deficit ratios selecting the strategy for target-seeking entry
// points: small gaps stay Safe, large ones escalate.
const (
	safeDeficitRatio = 0.15
	boldDeficitRatio = 0.40

	comfortablePlayers = 64
)

// SnapshotSource supplies the latest measurements for target-seeking
// and bottleneck analysis. The collector implements it.
type SnapshotSource interface {
	LatestSnapshot() perf.Snapshot
}

// Optimizer applies and reverts optimization programs. All mutations
// go through the injected SettingsStore with the original value
// captured first, so a full revert restores the exact prior state.
type Optimizer struct {
	settings     SettingsStore
	source       SnapshotSource
	experimental bool

	// mu makes each check-and-apply pass a single critical section;
	// two passes must never interleave their overrides.
	mu           sync.Mutex
	level        Level
	applied      []Action
	appliedNames map[string]bool
	overrides    []Override
	overridden   map[string]bool
}

func New(settings SettingsStore, source SnapshotSource, experimentalEnabled bool) *Optimizer {
	return &Optimizer{
		settings:     settings,
		source:       source,
		experimental: experimentalEnabled,
		appliedNames: make(map[string]bool),
		overridden:   make(map[string]bool),
	}
}

// Apply runs the ordered optimization program for a strategy. Bold
// includes the Safe program; Experimental includes both and adds the
// experimental tier when enabled. Actions already in the applied log
// are not re-applied.
func (o *Optimizer) Apply(strategy Strategy) []Action {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.applyLocked(strategy)
}

func (o *Optimizer) applyLocked(strategy Strategy) []Action {
	var applied []Action

	program := conservativeProgram()
	if strategy >= StrategyBold {
		program = append(program, aggressiveProgram()...)
	}
	if strategy >= StrategyExperimental {
		if o.experimental {
			program = append(program, experimentalProgram()...)
		}
		// Skipped silently when the experimental flag is off.
	}

	for _, entry := range program {
		if o.applyEntry(entry) {
			applied = append(applied, o.applied[len(o.applied)-1])
		}
	}

	if len(applied) > 0 {
		logger.Info().
			Str("strategy", strategy.String()).
			Str("level", o.level.String()).
			Int("actions", len(applied)).
			Msg("Optimization pass applied")
	}

	return applied
}

// applyEntry applies one catalog entry. Returns false when the action
// was already applied or had to be skipped.
func (o *Optimizer) applyEntry(entry catalogEntry) bool {
	if o.appliedNames[entry.action.Name] {
		return false
	}

	// Get-before-set: every key must exist and have its original value
	// captured before mutation. A missing key skips the whole action.
	originals := make([]Override, 0, len(entry.changes))
	for _, change := range entry.changes {
		original, ok := o.settings.Get(change.key)
		if !ok {
			logger.Warn().
				Str("action", entry.action.Name).
				Str("key", change.key).
				Msg("Setting not found, skipping action")

			return false
		}
		originals = append(originals, Override{Key: change.key, Original: original})
	}

	for i, change := range entry.changes {
		if !o.overridden[change.key] {
			o.overridden[change.key] = true
			o.overrides = append(o.overrides, originals[i])
		}
		o.settings.Set(change.key, change.value)
	}

	action := entry.action
	action.AppliedAt = time.Now()
	o.applied = append(o.applied, action)
	o.appliedNames[action.Name] = true

	if action.Level > o.level {
		o.level = action.Level
	}

	logger.Debug().
		Str("action", action.Name).
		Str("tier", action.Tier.String()).
		Msg("Optimization action applied")

	return true
}

// MaybeOptimize is the automatic trigger, invoked once per tick. It
// applies the configured strategy when any active alert is critical or
// worse. Idempotent application keeps repeated ticks from stacking
// duplicate mutations.
func (o *Optimizer) MaybeOptimize(strategy Strategy, alerts []alert.Alert) []Action {
	critical := false
	for _, a := range alerts {
		if a.Severity >= alert.SeverityCritical {
			critical = true
			break
		}
	}
	if !critical {
		return nil
	}

	return o.Apply(strategy)
}

// EmergencyOptimization is the one-shot "stop the bleeding" path for
// acute frame-rate collapse. It bypasses strategy selection: shadows
// off, anti-aliasing off, view distance halved, and a forced garbage
// collection pass. Overrides are recorded exactly like the tiered
// programs, so the mutations revert the same way.
func (o *Optimizer) EmergencyOptimization() []Action {
	o.mu.Lock()
	defer o.mu.Unlock()

	halvedView := "0.5"
	if current, ok := o.settings.Get(KeyViewDistanceScale); ok {
		if scale, err := strconv.ParseFloat(current, 64); err == nil {
			halvedView = strconv.FormatFloat(scale/2, 'f', -1, 64)
		}
	}

	program := []catalogEntry{
		{
			action:  Action{Name: "emergency_disable_shadows", Tier: StrategySafe, Level: LevelEmergency, ExpectedFPSGain: 15},
			changes: []settingChange{{KeyShadowQuality, "0"}},
		},
		{
			action:  Action{Name: "emergency_disable_antialiasing", Tier: StrategySafe, Level: LevelEmergency, ExpectedFPSGain: 8},
			changes: []settingChange{{KeyAntiAliasing, "0"}},
		},
		{
			action:  Action{Name: "emergency_halve_view_distance", Tier: StrategySafe, Level: LevelEmergency, ExpectedFPSGain: 10},
			changes: []settingChange{{KeyViewDistanceScale, halvedView}},
		},
		{
			action:  Action{Name: "emergency_force_gc", Tier: StrategySafe, Level: LevelEmergency, ExpectedMemoryMB: 256},
			changes: []settingChange{{KeyGCInterval, "5"}},
		},
	}

	var applied []Action
	for _, entry := range program {
		if o.applyEntry(entry) {
			applied = append(applied, o.applied[len(o.applied)-1])
		}
	}

	runtime.GC()

	logger.Warn().Int("actions", len(applied)).Msg("Emergency optimization applied")

	return applied
}

// OptimizeForTargetFPS escalates proportionally to the FPS deficit
// against the target.
func (o *Optimizer) OptimizeForTargetFPS(target float64) []Action {
	if target <= 0 {
		return nil
	}

	current := o.source.LatestSnapshot().AverageFPS
	deficit := (target - current) / target
	if deficit <= 0 {
		return nil
	}

	return o.Apply(strategyForGap(deficit))
}

// OptimizeForMemoryTarget escalates proportionally to the overage
// against the memory budget in megabytes.
func (o *Optimizer) OptimizeForMemoryTarget(maxMB float64) []Action {
	if maxMB <= 0 {
		return nil
	}

	current := o.source.LatestSnapshot().PhysicalMemoryMB
	overage := (current - maxMB) / maxMB
	if overage <= 0 {
		return nil
	}

	return o.Apply(strategyForGap(overage))
}

// OptimizeForPlayerCount escalates proportionally to how far the
// expected participant count exceeds the comfortable baseline.
func (o *Optimizer) OptimizeForPlayerCount(n int) []Action {
	if n <= comfortablePlayers {
		return o.Apply(StrategySafe)
	}

	gap := float64(n-comfortablePlayers) / comfortablePlayers

	return o.Apply(strategyForGap(gap))
}

// RevertOptimizations replays every recorded override in reverse to
// restore original values, clears the applied-action log, and resets
// the level to none. Calling it with nothing recorded is a no-op.
func (o *Optimizer) RevertOptimizations() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.overrides) == 0 {
		return
	}

	for i := len(o.overrides) - 1; i >= 0; i-- {
		o.settings.Set(o.overrides[i].Key, o.overrides[i].Original)
	}

	logger.Info().
		Int("settings_restored", len(o.overrides)).
		Int("actions_cleared", len(o.applied)).
		Msg("Optimizations reverted")

	o.overrides = nil
	o.overridden = make(map[string]bool)
	o.applied = nil
	o.appliedNames = make(map[string]bool)
	o.level = LevelNone
}

// AppliedActions returns a copy of the applied-action log.
func (o *Optimizer) AppliedActions() []Action {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Action, len(o.applied))
	copy(out, o.applied)

	return out
}

// Overrides returns a copy of the recorded configuration overrides.
func (o *Optimizer) Overrides() []Override {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Override, len(o.overrides))
	copy(out, o.overrides)

	return out
}

// Level returns the current optimization level.
func (o *Optimizer) Level() Level {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.level
}

func strategyForGap(ratio float64) Strategy {
	switch {
	case ratio <= safeDeficitRatio:
		return StrategySafe
	case ratio <= boldDeficitRatio:
		return StrategyBold
	default:
		return StrategyExperimental
	}
}
