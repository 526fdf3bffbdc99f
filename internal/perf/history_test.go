package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBounded(t *testing.T) {
	h := NewHistory[float64](3)

	for i := 1; i <= 5; i++ {
		h.Push(float64(i))
	}

	require.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Capacity())
	assert.Equal(t, []float64{3, 4, 5}, h.Samples())
}

func TestHistoryAggregates(t *testing.T) {
	h := NewHistory[float64](10)
	h.Push(10)
	h.Push(20)
	h.Push(60)

	assert.InDelta(t, 30.0, h.Average(), 0.001)
	assert.Equal(t, 10.0, h.Min())
	assert.Equal(t, 60.0, h.Max())
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory[float64](5)

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0.0, h.Average())
	assert.Equal(t, 0.0, h.Min())
	assert.Equal(t, 0.0, h.Max())
	assert.Empty(t, h.Samples())
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory[int](4)
	h.Push(1)
	h.Push(2)
	h.Reset()

	assert.Equal(t, 0, h.Len())

	h.Push(7)
	assert.Equal(t, []int{7}, h.Samples())
}

func TestHistoryInvalidCapacity(t *testing.T) {
	h := NewHistory[int](0)

	h.Push(1)
	h.Push(2)
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, []int{2}, h.Samples())
}
