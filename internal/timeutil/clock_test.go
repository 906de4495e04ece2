package timeutil

import (
	"testing"
	"time"
)

func TestMockClockSetAndNow(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), start)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Fatalf("Now() after Set = %v, want %v", clock.Now(), later)
	}
}

func TestMockClockAdvanceFiresDueTickers(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Minute)

	clock.Advance(30 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its period elapsed")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after its period elapsed")
	}
}

func TestMockClockStoppedTickerDoesNotFire(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Minute)
	ticker.Stop()

	clock.Advance(2 * time.Minute)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestRealClockNow(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Fatalf("RealClock.Now() = %v, outside [%v, %v]", got, before, after)
	}
}
