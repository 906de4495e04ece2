package quake

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tremor-data/quakewatch/internal/monitoring"
	"github.com/tremor-data/quakewatch/internal/timeutil"
)

func testParams() Params {
	return Params{
		WindowMinutes:  30,
		EpsilonKm:      100,
		MinPoints:      2,
		MinClusterSize: 2,
		RadiusMargin:   1.2,
	}
}

func TestEngineEndToEndScenario(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	feed := []RawRecord{
		{ID: "A", Mag: mag(4.0), Coordinates: []float64{-118.0, 34.0}},
		{ID: "B", Mag: mag(3.0), Coordinates: []float64{-118.1, 34.1}},
		{ID: "C", Mag: mag(5.0), Coordinates: []float64{10.0, 10.0}},
	}

	var snap Snapshot
	for _, rec := range feed {
		var err error
		snap, err = eng.Process(rec)
		if err != nil {
			t.Fatalf("process %s: %v", rec.ID, err)
		}
	}

	if len(snap.Events) != 3 {
		t.Fatalf("expected 3 live events, got %d", len(snap.Events))
	}

	byID := map[string]LabeledEvent{}
	for _, ev := range snap.Events {
		byID[ev.ID] = ev
	}
	if byID["A"].Label == NoiseLabel || byID["A"].Label != byID["B"].Label {
		t.Errorf("expected A and B in one cluster: A=%d B=%d", byID["A"].Label, byID["B"].Label)
	}
	if byID["C"].Label != NoiseLabel {
		t.Errorf("expected C to be noise, got %d", byID["C"].Label)
	}

	if len(snap.Clusters) != 1 {
		t.Fatalf("expected 1 cluster summary, got %d", len(snap.Clusters))
	}
	s := snap.Clusters[0]
	if math.Abs(s.CentroidLat-34.05) > 0.001 || math.Abs(s.CentroidLon+118.05) > 0.001 {
		t.Errorf("centroid off: (%v, %v)", s.CentroidLat, s.CentroidLon)
	}
	for _, id := range []string{"A", "B"} {
		ev := byID[id]
		d := HaversineKm(s.CentroidLat, s.CentroidLon, ev.Lat, ev.Lon)
		if d > s.CoveringRadiusMeters/1000 {
			t.Errorf("member %s outside covering radius", id)
		}
	}
}

func TestEngineEvictsAcrossPasses(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	if _, err := eng.Process(RawRecord{ID: "old", Mag: mag(3.0), Coordinates: []float64{-118.0, 34.0}}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(31 * time.Minute)
	snap, err := eng.Process(RawRecord{ID: "new", Mag: mag(3.0), Coordinates: []float64{10.0, 10.0}})
	if err != nil {
		t.Fatal(err)
	}

	if len(snap.Events) != 1 || snap.Events[0].ID != "new" {
		t.Errorf("expected only the new event after window slid, got %+v", snap.Events)
	}
}

func TestEngineEvaluateWithoutIngest(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	if _, err := eng.Process(RawRecord{ID: "a", Mag: mag(3.0), Coordinates: []float64{-118.0, 34.0}}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(40 * time.Minute)
	snap := eng.Evaluate()
	if len(snap.Events) != 0 {
		t.Errorf("expected empty window after timer-driven evaluation, got %d events", len(snap.Events))
	}
	if eng.WindowLen() != 0 {
		t.Errorf("buffer retained stale events: %d", eng.WindowLen())
	}
}

func TestEngineValidationErrorLeavesWindowIntact(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	if _, err := eng.Process(RawRecord{ID: "ok", Mag: mag(3.0), Coordinates: []float64{-118.0, 34.0}}); err != nil {
		t.Fatal(err)
	}
	before := eng.LastSnapshot()

	if _, err := eng.Process(RawRecord{ID: "bad"}); err == nil {
		t.Fatal("expected validation error")
	}

	after := eng.LastSnapshot()
	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("rejected record changed engine state (-before +after):\n%s", diff)
	}
	if eng.WindowLen() != 1 {
		t.Errorf("expected 1 event in window, got %d", eng.WindowLen())
	}
}

func TestEngineComputationFailureYieldsNoiseOnlyPass(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(prev)

	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	// Bypass validation to plant a poisoned coordinate, as a corrupted
	// upstream producer could if validation were miswired.
	snap := eng.Ingest(Event{ID: "bad", Lat: math.NaN(), Lon: 0, Magnitude: 1, ObservedAt: clock.Now()})

	if len(snap.Clusters) != 0 {
		t.Errorf("expected no cluster summaries on failed pass, got %d", len(snap.Clusters))
	}
	for _, ev := range snap.Events {
		if ev.Label != NoiseLabel {
			t.Errorf("expected noise-only labels on failed pass, got %d", ev.Label)
		}
	}
	// Buffer must survive the failed pass.
	if eng.WindowLen() != 1 {
		t.Errorf("buffer corrupted by failed pass: len=%d", eng.WindowLen())
	}
}

func TestEngineSnapshotStableAcrossIdenticalEvaluations(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	eng := NewEngine(testParams(), clock)

	for _, rec := range []RawRecord{
		{ID: "A", Mag: mag(4.0), Coordinates: []float64{-118.0, 34.0}},
		{ID: "B", Mag: mag(3.0), Coordinates: []float64{-118.1, 34.1}},
	} {
		if _, err := eng.Process(rec); err != nil {
			t.Fatal(err)
		}
	}

	first := eng.Evaluate()
	second := eng.Evaluate()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical window produced different snapshots (-first +second):\n%s", diff)
	}
}
