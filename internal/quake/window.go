package quake

import "time"

// Buffer holds the events inside the rolling window, ordered by arrival.
// Because ObservedAt is stamped at ingest, arrival order and ObservedAt
// order coincide, so eviction can scan from the head and stop at the first
// live event. The evaluation driver is the sole mutator.
type Buffer struct {
	events []Event
}

// NewBuffer returns an empty window buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds an event at the tail. O(1) amortized.
func (b *Buffer) Append(ev Event) {
	b.events = append(b.events, ev)
}

// Evict removes every event with now - ObservedAt > window. An event whose
// age equals the window exactly is retained (inclusive boundary). Relies on
// head-to-tail ObservedAt ordering: scanning stops at the first live event.
func (b *Buffer) Evict(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(b.events) && b.events[i].ObservedAt.Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	// Shift in place so evicted Events don't pin the backing array.
	n := copy(b.events, b.events[i:])
	for j := n; j < len(b.events); j++ {
		b.events[j] = Event{}
	}
	b.events = b.events[:n]
}

// Snapshot returns a copy of the live events for read-only use downstream.
func (b *Buffer) Snapshot() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len reports the number of live events.
func (b *Buffer) Len() int {
	return len(b.events)
}
