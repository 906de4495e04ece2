package quake

import (
	"fmt"
	"math"
)

// AssignerParams holds the density-clustering knobs.
type AssignerParams struct {
	EpsilonKm float64 // neighborhood radius under the great-circle metric
	MinPoints int     // minimum neighbors, including self, for a core point
}

// AssignClusters partitions the window's events into density-based clusters
// and noise. It returns one label per event, index-aligned with the input:
// cluster ids 1..k in discovery order, NoiseLabel for unclustered points.
//
// A point is core when at least MinPoints points (itself included) lie
// within EpsilonKm; the boundary is inclusive (d == EpsilonKm is within).
// Clusters are the density-reachable closures of core points; non-core
// points within reach of a core join as border members.
//
// Neighbor queries are brute-force O(n²). The window bounds n, and a
// planar grid index does not carry over to a spherical metric, so the
// definitional scan is also the implementation.
func AssignClusters(events []Event, params AssignerParams) ([]int, error) {
	n := len(events)
	if n == 0 {
		return nil, nil
	}

	for i, ev := range events {
		if !finite(ev.Lat) || !finite(ev.Lon) {
			return nil, &ComputationError{
				Stage:  "neighbor scan",
				Reason: fmt.Sprintf("non-finite coordinate on event %d (%q)", i, ev.ID),
			}
		}
	}

	labels := make([]int, n) // 0=unvisited, NoiseLabel=noise, >0=cluster id
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := regionQuery(events, i, params.EpsilonKm)
		if len(neighbors) < params.MinPoints {
			labels[i] = NoiseLabel
			continue
		}

		clusterID++
		expandCluster(events, labels, i, neighbors, clusterID, params)
	}

	return labels, nil
}

// expandCluster grows cluster clusterID outward from a core point using a
// queue of reachable indices. Border points absorbed as noise earlier are
// reclaimed; only points that turn out to be core extend the frontier.
func expandCluster(events []Event, labels []int, seed int, neighbors []int, clusterID int, params AssignerParams) {
	labels[seed] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == NoiseLabel {
			labels[idx] = clusterID // noise becomes a border member
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		next := regionQuery(events, idx, params.EpsilonKm)
		if len(next) >= params.MinPoints {
			neighbors = append(neighbors, next...)
		}
	}
}

// regionQuery returns the indices of all events within epsKm of events[i],
// including i itself. Inclusive boundary.
func regionQuery(events []Event, i int, epsKm float64) []int {
	p := events[i]
	var neighbors []int
	for j, q := range events {
		if HaversineKm(p.Lat, p.Lon, q.Lat, q.Lon) <= epsKm {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
