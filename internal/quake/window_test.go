package quake

import (
	"testing"
	"time"
)

func eventAt(id string, observed time.Time) Event {
	return Event{ID: id, Lat: 34.0, Lon: -118.0, Magnitude: 3.0, ObservedAt: observed}
}

func TestBufferEvictBoundary(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	buf := NewBuffer()
	buf.Append(eventAt("stale", now.Add(-window-time.Second)))    // window + ε → evicted
	buf.Append(eventAt("boundary", now.Add(-window)))             // exactly window → retained
	buf.Append(eventAt("fresh", now.Add(-window+time.Second)))    // window - ε → retained
	buf.Append(eventAt("newest", now.Add(-time.Minute)))

	buf.Evict(now, window)

	if buf.Len() != 3 {
		t.Fatalf("expected 3 events after evict, got %d", buf.Len())
	}
	for _, ev := range buf.Snapshot() {
		if ev.ID == "stale" {
			t.Errorf("stale event survived eviction")
		}
		if now.Sub(ev.ObservedAt) > window {
			t.Errorf("event %s violates window invariant: age %v", ev.ID, now.Sub(ev.ObservedAt))
		}
	}
}

func TestBufferEvictAll(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	buf := NewBuffer()
	buf.Append(eventAt("a", now.Add(-2*time.Hour)))
	buf.Append(eventAt("b", now.Add(-time.Hour)))

	buf.Evict(now, 30*time.Minute)
	if buf.Len() != 0 {
		t.Errorf("expected empty buffer, got %d events", buf.Len())
	}
}

func TestBufferEvictNothingToDo(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	buf := NewBuffer()
	buf.Append(eventAt("a", now.Add(-time.Minute)))
	buf.Append(eventAt("b", now))

	buf.Evict(now, 30*time.Minute)
	if buf.Len() != 2 {
		t.Errorf("expected 2 events, got %d", buf.Len())
	}
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	now := time.Now()
	buf := NewBuffer()
	buf.Append(eventAt("a", now))

	snap := buf.Snapshot()
	snap[0].ID = "mutated"

	if got := buf.Snapshot()[0].ID; got != "a" {
		t.Errorf("snapshot mutation leaked into buffer: %q", got)
	}
}

func TestBufferEvictPreservesOrder(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	buf := NewBuffer()
	buf.Append(eventAt("old", now.Add(-45*time.Minute)))
	buf.Append(eventAt("a", now.Add(-10*time.Minute)))
	buf.Append(eventAt("b", now.Add(-5*time.Minute)))

	buf.Evict(now, 30*time.Minute)

	snap := buf.Snapshot()
	if len(snap) != 2 || snap[0].ID != "a" || snap[1].ID != "b" {
		t.Errorf("unexpected order after eviction: %+v", snap)
	}
}
