package events

import "sync"

// RingBuffer holds the newest events up to a fixed capacity. Older events
// are overwritten once it wraps.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	head  int // next write position
	count int
}

// NewRingBuffer returns a buffer holding capacity events. A capacity below
// one is raised to one.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{slots: make([]Event, capacity)}
}

func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.head] = e
	rb.head = (rb.head + 1) % len(rb.slots)
	if rb.count < len(rb.slots) {
		rb.count++
	}
}

// Len returns the number of buffered events.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Last copies out the newest n events, oldest first. n <= 0 or beyond Len
// returns everything.
func (rb *RingBuffer) Last(n int) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || n > rb.count {
		n = rb.count
	}
	out := make([]Event, n)
	start := rb.head - n
	if start < 0 {
		start += len(rb.slots)
	}
	for i := range out {
		out[i] = rb.slots[(start+i)%len(rb.slots)]
	}
	return out
}

// Snapshot copies out every buffered event, oldest first.
func (rb *RingBuffer) Snapshot() []Event {
	return rb.Last(0)
}

func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	clear(rb.slots)
	rb.head = 0
	rb.count = 0
}
