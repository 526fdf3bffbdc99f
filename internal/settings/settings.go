// Package settings provides the console-style key/value configuration
// surface the optimizer mutates and restores.
package settings

import "sync"

// Store is a concurrency-safe console-variable registry. The optimizer
// depends only on its Get/Set pair, never on a global.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value for a key and whether the key exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]

	return value, ok
}

// Set assigns a value, creating the key if needed.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Seed loads a batch of settings without overwriting existing keys.
func (s *Store) Seed(defaults map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range defaults {
		if _, ok := s.values[key]; !ok {
			s.values[key] = value
		}
	}
}

// Snapshot returns a copy of all current settings.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}

	return out
}

// Defaults returns the stock settings a session host registers before
// the optimizer runs.
func Defaults() map[string]string {
	return map[string]string{
		"r.ShadowQuality":            "3",
		"r.AntiAliasingMethod":       "2",
		"r.Streaming.PoolSizeMB":     "2048",
		"r.ViewDistanceScale":        "1.0",
		"r.PostProcessQuality":       "3",
		"r.StaticMeshLODBias":        "0",
		"r.DynamicResolution":        "0",
		"r.VariableRateShading":      "0",
		"r.GPUProceduralGeneration":  "0",
		"net.CullDistanceScale":      "1.0",
		"net.PriorityReplication":    "0",
		"net.DeltaCompression":       "0",
		"gc.IntervalSeconds":         "60",
		"siege.UpdateFrequencyHz":    "20",
		"siege.QueryResultCache":     "0",
		"siege.AsyncBatchProcessing": "0",
		"siege.SpatialPartitioning":  "0",
		"siege.PredictiveScheduling": "0",
	}
}
