package perf

import "sync"

// GPUTimer measures one frame's GPU cost in milliseconds. Measure may
// block for the duration of the GPU query; the collector never calls it
// on the sampling tick.
type GPUTimer interface {
	Measure() float64
}

// gpuSlot is a single-slot handoff to the GPU timing context. The
// sampling tick submits a request and reads back the previously
// completed result, so a slow GPU query never stalls the tick.
type gpuSlot struct {
	timer    GPUTimer
	requests chan struct{}
	stopped  chan struct{}

	mu   sync.Mutex
	last float64
}

func newGPUSlot(timer GPUTimer) *gpuSlot {
	s := &gpuSlot{
		timer:    timer,
		requests: make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
	go s.run()

	return s
}

func (s *gpuSlot) run() {
	defer close(s.stopped)

	for range s.requests {
		result := s.timer.Measure()
		s.mu.Lock()
		s.last = result
		s.mu.Unlock()
	}
}

// request submits a timing request without blocking. A request already
// in flight is not queued behind; the slot holds at most one.
func (s *gpuSlot) request() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// lastResult returns the most recently completed measurement.
func (s *gpuSlot) lastResult() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

func (s *gpuSlot) close() {
	close(s.requests)
	<-s.stopped
}
