package sinks

import (
	"context"
	"sync"

	"emberfall/sim/internal/logging"
)

// MemorySink retains the most recent events in a fixed-size ring so a long
// sweep cannot grow memory without bound. Per-category totals keep counting
// past evictions. Capacity zero or below keeps every event.
type MemorySink struct {
	mu       sync.RWMutex
	capacity int
	ring     []logging.Event
	next     int
	dropped  int
	counts   map[string]int
}

func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity, counts: make(map[string]int)}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[event.Category]++
	stored := copyEvent(event)
	if s.capacity <= 0 || len(s.ring) < s.capacity {
		s.ring = append(s.ring, stored)
		return nil
	}
	s.ring[s.next] = stored
	s.next = (s.next + 1) % s.capacity
	s.dropped++
	return nil
}

// Events returns the retained events oldest first.
func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logging.Event, 0, len(s.ring))
	out = append(out, s.ring[s.next:]...)
	out = append(out, s.ring[:s.next]...)
	return out
}

// Dropped reports how many events were evicted from the ring.
func (s *MemorySink) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// CategoryCounts returns per-category totals across every write, evicted
// events included.
func (s *MemorySink) CategoryCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(s.counts))
	for category, n := range s.counts {
		counts[category] = n
	}
	return counts
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring = s.ring[:0]
	s.next = 0
	s.dropped = 0
	s.counts = make(map[string]int)
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

// copyEvent detaches the stored event from slices and maps the caller may
// mutate after Write returns.
func copyEvent(event logging.Event) logging.Event {
	stored := event
	if len(event.Targets) > 0 {
		stored.Targets = append([]logging.EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		extra := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			extra[k] = v
		}
		stored.Extra = extra
	}
	return stored
}
