// Package quake implements the windowed spatial clustering core: a sliding
// time window of validated earthquake events, density-based cluster
// assignment over the great-circle metric, and per-cluster geometry
// summaries. All I/O (feed polling, archiving, rendering) lives outside
// this package; it only consumes validated events and produces snapshots.
package quake

import "time"

// Defaults for the clustering engine. Values match the production feed
// behavior: a 30 minute rolling window with 100km cluster proximity.
const (
	// DefaultWindowMinutes is the length of the rolling event window.
	DefaultWindowMinutes = 30
	// DefaultEpsilonKm is the DBSCAN neighborhood radius in kilometers.
	DefaultEpsilonKm = 100.0
	// DefaultMinPoints is the minimum neighborhood size (including the
	// point itself) for a point to be a core point.
	DefaultMinPoints = 3
	// DefaultMinClusterSize is the minimum member count for a cluster to
	// receive a geometry summary. Smaller clusters are reported as noise.
	DefaultMinClusterSize = 3
	// DefaultRadiusMargin scales the covering radius so the reported
	// circle contains every member despite centroid approximation error.
	DefaultRadiusMargin = 1.2
)

// NoiseLabel marks an event that belongs to no cluster.
const NoiseLabel = -1

// RawRecord is an inbound message as received from the feed or the ingest
// endpoint, prior to validation. Coordinates are GeoJSON order:
// [longitude, latitude, optional depth-km].
type RawRecord struct {
	ID          string    `json:"id,omitempty"`
	Place       string    `json:"place,omitempty"`
	Mag         *float64  `json:"mag"`
	Time        string    `json:"time,omitempty"`
	URL         string    `json:"url,omitempty"`
	Coordinates []float64 `json:"coordinates"`
}

// Event is a validated earthquake report. Immutable once created: the
// window buffer owns it until eviction, and cluster labels are never
// written back onto it.
type Event struct {
	ID         string    `json:"id"`
	Place      string    `json:"place,omitempty"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	DepthKm    float64   `json:"depth_km"`
	Magnitude  float64   `json:"mag"`
	SourceTime string    `json:"source_time,omitempty"` // source-reported time, informational only
	ObservedAt time.Time `json:"observed_at"`           // stamped at ingest; drives window eviction
}

// LabeledEvent pairs an event with the cluster label it received in one
// evaluation pass. Labels are transient and reassigned every pass.
type LabeledEvent struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Magnitude  float64   `json:"mag"`
	ObservedAt time.Time `json:"observed_at"`
	Label      int       `json:"cluster"`
}

// ClusterSummary is the derived geometry for one cluster in one pass.
type ClusterSummary struct {
	Label                int     `json:"label"`
	CentroidLat          float64 `json:"centroid_lat"`
	CentroidLon          float64 `json:"centroid_lon"`
	CoveringRadiusMeters float64 `json:"covering_radius_m"`
	MemberCount          int     `json:"member_count"`
	MagnitudeMean        float64 `json:"magnitude_mean"`
	MagnitudeMax         float64 `json:"magnitude_max"`
}

// Snapshot is the result of one evaluation pass: every live event with its
// label, plus the summaries of qualifying clusters. It holds no references
// back into the window buffer.
type Snapshot struct {
	At       time.Time        `json:"at"`
	Events   []LabeledEvent   `json:"events"`
	Clusters []ClusterSummary `json:"clusters"`
}

// Params bundles the tunable values of the clustering engine.
type Params struct {
	WindowMinutes  int
	EpsilonKm      float64
	MinPoints      int
	MinClusterSize int
	RadiusMargin   float64
}

// DefaultParams returns the production-default engine parameters.
func DefaultParams() Params {
	return Params{
		WindowMinutes:  DefaultWindowMinutes,
		EpsilonKm:      DefaultEpsilonKm,
		MinPoints:      DefaultMinPoints,
		MinClusterSize: DefaultMinClusterSize,
		RadiusMargin:   DefaultRadiusMargin,
	}
}

// Window returns the window length as a duration.
func (p Params) Window() time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}
