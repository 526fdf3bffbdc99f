package optimizer

import (
	"time"

	"github.com/siegewar/perfctl/internal/errors"
)

// Strategy selects how much risk the optimizer may take.
type Strategy int

const (
	StrategySafe Strategy = iota
	StrategyBold
	StrategyExperimental
)

func (s Strategy) String() string {
	switch s {
	case StrategySafe:
		return "safe"
	case StrategyBold:
		return "bold"
	case StrategyExperimental:
		return "experimental"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "safe":
		return StrategySafe, nil
	case "bold":
		return StrategyBold, nil
	case "experimental":
		return StrategyExperimental, nil
	default:
		return StrategySafe, errors.New().WithData(errors.ErrInvalidStrategy, s)
	}
}

// Level tracks how far the optimizer has escalated. It only moves
// forward under pressure; a full revert resets it to LevelNone.
type Level int

const (
	LevelNone Level = iota
	LevelConservative
	LevelAggressive
	LevelEmergency
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelConservative:
		return "conservative"
	case LevelAggressive:
		return "aggressive"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Action is one named, reversible mutation of runtime settings.
// Entries in the applied-action log are never mutated, only appended
// or cleared wholesale on revert.
type Action struct {
	Name             string
	Tier             Strategy
	Level            Level
	ExpectedFPSGain  float64
	ExpectedMemoryMB float64
	RequiresRestart  bool
	AppliedAt        time.Time
}

// Override records a setting's original value so a revert can restore
// it exactly. One entry per distinct key since the last full revert.
type Override struct {
	Key      string
	Original string
}

// SettingsStore is the console-style configuration surface the
// optimizer mutates. Get-before-set is mandatory so the original value
// can be captured for rollback.
type SettingsStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}
