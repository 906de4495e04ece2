package quake

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryParams controls which clusters get a geometry summary and how the
// covering radius is padded.
type SummaryParams struct {
	MinMembers   int     // clusters smaller than this are demoted to noise
	RadiusMargin float64 // covering radius scale factor, e.g. 1.2
}

// Summarize derives a ClusterSummary per qualifying cluster label. The
// centroid is the arithmetic mean of member latitudes/longitudes — fine at
// regional scale, not spherical-mean-correct globally. The covering radius
// is the maximum great-circle distance from the centroid to any member,
// scaled by RadiusMargin, in meters.
//
// Clusters with fewer than MinMembers members receive no summary and their
// members are relabeled noise in the returned label slice. The input labels
// are not modified.
func Summarize(events []Event, labels []int, params SummaryParams) ([]ClusterSummary, []int) {
	out := make([]int, len(labels))
	copy(out, labels)
	if len(events) == 0 {
		return nil, out
	}

	members := make(map[int][]int)
	for i, label := range out {
		if label == NoiseLabel {
			continue
		}
		members[label] = append(members[label], i)
	}

	ids := make([]int, 0, len(members))
	for label := range members {
		ids = append(ids, label)
	}
	sort.Ints(ids)

	var summaries []ClusterSummary
	for _, label := range ids {
		idxs := members[label]
		if len(idxs) < params.MinMembers {
			for _, i := range idxs {
				out[i] = NoiseLabel
			}
			continue
		}

		lats := make([]float64, len(idxs))
		lons := make([]float64, len(idxs))
		mags := make([]float64, len(idxs))
		for k, i := range idxs {
			lats[k] = events[i].Lat
			lons[k] = events[i].Lon
			mags[k] = events[i].Magnitude
		}
		centLat := stat.Mean(lats, nil)
		centLon := stat.Mean(lons, nil)

		maxKm := 0.0
		for _, i := range idxs {
			d := HaversineKm(centLat, centLon, events[i].Lat, events[i].Lon)
			if d > maxKm {
				maxKm = d
			}
		}

		summaries = append(summaries, ClusterSummary{
			Label:                label,
			CentroidLat:          centLat,
			CentroidLon:          centLon,
			CoveringRadiusMeters: maxKm * params.RadiusMargin * 1000,
			MemberCount:          len(idxs),
			MagnitudeMean:        stat.Mean(mags, nil),
			MagnitudeMax:         floats.Max(mags),
		})
	}

	return summaries, out
}
