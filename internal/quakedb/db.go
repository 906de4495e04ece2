// Package quakedb archives validated events and per-pass cluster summaries
// in SQLite. It is a sink for the clustering engine's output, not part of
// the evaluation path; a write failure never blocks or corrupts a pass.
package quakedb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the archive database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the archive at path. Schema management
// is separate: call MigrateUp before first use.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// The archive has one writer (the ingest loop); serialize to keep
	// modernc's sqlite happy under the API server's concurrent reads.
	db.SetMaxOpenConns(1)
	return &DB{DB: db}, nil
}

// StoredSummary is a cluster summary row together with the time of the
// evaluation pass that produced it.
type StoredSummary struct {
	EvaluatedAt          time.Time `json:"evaluated_at"`
	Label                int       `json:"label"`
	CentroidLat          float64   `json:"centroid_lat"`
	CentroidLon          float64   `json:"centroid_lon"`
	CoveringRadiusMeters float64   `json:"covering_radius_m"`
	MemberCount          int       `json:"member_count"`
	MagnitudeMean        float64   `json:"magnitude_mean"`
	MagnitudeMax         float64   `json:"magnitude_max"`
}
