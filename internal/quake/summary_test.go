package quake

import (
	"math"
	"testing"
)

func TestSummarizeCentroidAndRadius(t *testing.T) {
	events := []Event{
		{ID: "a", Lat: 34.0, Lon: -118.0, Magnitude: 4.0},
		{ID: "b", Lat: 34.1, Lon: -118.1, Magnitude: 3.0},
	}
	labels := []int{1, 1}

	summaries, out := Summarize(events, labels, SummaryParams{MinMembers: 2, RadiusMargin: 1.2})
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	s := summaries[0]
	if math.Abs(s.CentroidLat-34.05) > 1e-9 {
		t.Errorf("expected centroid lat 34.05, got %v", s.CentroidLat)
	}
	if math.Abs(s.CentroidLon+118.05) > 1e-9 {
		t.Errorf("expected centroid lon -118.05, got %v", s.CentroidLon)
	}
	if s.MemberCount != 2 {
		t.Errorf("expected 2 members, got %d", s.MemberCount)
	}

	// Covering property: every member inside the reported circle.
	for _, ev := range events {
		d := HaversineKm(s.CentroidLat, s.CentroidLon, ev.Lat, ev.Lon)
		if d > s.CoveringRadiusMeters/1000 {
			t.Errorf("member %s at %v km outside covering radius %v km", ev.ID, d, s.CoveringRadiusMeters/1000)
		}
	}

	// The margin must actually pad the max centroid distance.
	maxD := HaversineKm(s.CentroidLat, s.CentroidLon, events[0].Lat, events[0].Lon)
	if s.CoveringRadiusMeters < maxD*1.2*1000*0.999 {
		t.Errorf("covering radius %v below padded max distance %v", s.CoveringRadiusMeters, maxD*1.2*1000)
	}

	if out[0] != 1 || out[1] != 1 {
		t.Errorf("qualifying cluster labels must survive: %v", out)
	}
}

func TestSummarizeDemotesSmallClusters(t *testing.T) {
	events := []Event{
		{ID: "a", Lat: 34.0, Lon: -118.0, Magnitude: 4.0},
		{ID: "b", Lat: 34.1, Lon: -118.1, Magnitude: 3.0},
		{ID: "c", Lat: 10.0, Lon: 10.0, Magnitude: 5.0},
	}
	labels := []int{1, 1, NoiseLabel}

	summaries, out := Summarize(events, labels, SummaryParams{MinMembers: 3, RadiusMargin: 1.2})
	if len(summaries) != 0 {
		t.Errorf("expected no summaries below member threshold, got %d", len(summaries))
	}
	for i, l := range out {
		if l != NoiseLabel {
			t.Errorf("event %d: expected demotion to noise, got %d", i, l)
		}
	}
	// Input labels untouched.
	if labels[0] != 1 {
		t.Errorf("input labels mutated: %v", labels)
	}
}

func TestSummarizeMagnitudeAggregates(t *testing.T) {
	events := []Event{
		{ID: "a", Lat: 34.00, Lon: -118.00, Magnitude: 2.0},
		{ID: "b", Lat: 34.02, Lon: -118.02, Magnitude: 4.0},
		{ID: "c", Lat: 34.04, Lon: -118.04, Magnitude: 6.0},
	}
	labels := []int{1, 1, 1}

	summaries, _ := Summarize(events, labels, SummaryParams{MinMembers: 3, RadiusMargin: 1.2})
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if math.Abs(summaries[0].MagnitudeMean-4.0) > 1e-9 {
		t.Errorf("expected mean magnitude 4.0, got %v", summaries[0].MagnitudeMean)
	}
	if summaries[0].MagnitudeMax != 6.0 {
		t.Errorf("expected max magnitude 6.0, got %v", summaries[0].MagnitudeMax)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	summaries, out := Summarize(nil, nil, SummaryParams{MinMembers: 2, RadiusMargin: 1.2})
	if summaries != nil {
		t.Errorf("expected nil summaries, got %v", summaries)
	}
	if len(out) != 0 {
		t.Errorf("expected empty labels, got %v", out)
	}
}

func TestSummarizeMultipleClustersSortedByLabel(t *testing.T) {
	events := []Event{
		{ID: "t1", Lat: 35.60, Lon: 139.70, Magnitude: 3.0},
		{ID: "t2", Lat: 35.70, Lon: 139.80, Magnitude: 3.0},
		{ID: "l1", Lat: 34.00, Lon: -118.00, Magnitude: 3.0},
		{ID: "l2", Lat: 34.10, Lon: -118.10, Magnitude: 3.0},
	}
	labels := []int{2, 2, 1, 1}

	summaries, _ := Summarize(events, labels, SummaryParams{MinMembers: 2, RadiusMargin: 1.2})
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Label != 1 || summaries[1].Label != 2 {
		t.Errorf("expected summaries ordered by label, got %d then %d", summaries[0].Label, summaries[1].Label)
	}
}
