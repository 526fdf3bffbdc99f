package perf

// Number constrains history samples to the numeric types we aggregate.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// History is a fixed-capacity FIFO sample buffer. Appending beyond the
// capacity evicts the oldest sample. It is not safe for concurrent use;
// the owning component serializes access.
type History[T Number] struct {
	samples  []T
	capacity int
}

func NewHistory[T Number](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &History[T]{
		samples:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest one when full.
func (h *History[T]) Push(sample T) {
	h.samples = append(h.samples, sample)
	if len(h.samples) > h.capacity {
		h.samples = h.samples[1:]
	}
}

func (h *History[T]) Len() int {
	return len(h.samples)
}

func (h *History[T]) Capacity() int {
	return h.capacity
}

// Samples returns a copy of the buffered samples, oldest first.
func (h *History[T]) Samples() []T {
	out := make([]T, len(h.samples))
	copy(out, h.samples)

	return out
}

// Average returns the rolling mean, or 0 when empty.
func (h *History[T]) Average() float64 {
	if len(h.samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range h.samples {
		sum += float64(s)
	}

	return sum / float64(len(h.samples))
}

// Min returns the smallest buffered sample, or 0 when empty.
func (h *History[T]) Min() T {
	var minimum T
	if len(h.samples) == 0 {
		return minimum
	}

	minimum = h.samples[0]
	for _, s := range h.samples[1:] {
		if s < minimum {
			minimum = s
		}
	}

	return minimum
}

// Max returns the largest buffered sample, or 0 when empty.
func (h *History[T]) Max() T {
	var maximum T
	if len(h.samples) == 0 {
		return maximum
	}

	maximum = h.samples[0]
	for _, s := range h.samples[1:] {
		if s > maximum {
			maximum = s
		}
	}

	return maximum
}

// Reset discards all buffered samples.
func (h *History[T]) Reset() {
	h.samples = h.samples[:0]
}
