package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("r.ShadowQuality")
	assert.False(t, ok)

	s.Set("r.ShadowQuality", "2")
	value, ok := s.Get("r.ShadowQuality")
	require.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	s := NewStore()
	s.Set("r.ShadowQuality", "0")

	s.Seed(Defaults())

	value, _ := s.Get("r.ShadowQuality")
	assert.Equal(t, "0", value)

	// Unset keys still pick up their defaults.
	value, ok := s.Get("r.ViewDistanceScale")
	require.True(t, ok)
	assert.Equal(t, "1.0", value)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Set("gc.IntervalSeconds", "60")

	snapshot := s.Snapshot()
	snapshot["gc.IntervalSeconds"] = "5"

	value, _ := s.Get("gc.IntervalSeconds")
	assert.Equal(t, "60", value)
}
