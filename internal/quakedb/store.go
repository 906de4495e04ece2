package quakedb

import (
	"fmt"
	"time"

	"github.com/tremor-data/quakewatch/internal/quake"
)

// InsertEvent appends a validated event to the archive.
func (db *DB) InsertEvent(ev quake.Event) error {
	_, err := db.Exec(`
		INSERT INTO events (event_id, place, lat, lon, depth_km, magnitude, source_time, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Place, ev.Lat, ev.Lon, ev.DepthKm, ev.Magnitude, ev.SourceTime,
		ev.ObservedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}

// InsertSummaries records the cluster summaries of one evaluation pass.
// All rows share the pass timestamp and commit atomically.
func (db *DB) InsertSummaries(at time.Time, summaries []quake.ClusterSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin summaries tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cluster_summaries
			(evaluated_at, label, centroid_lat, centroid_lon, covering_radius_m, member_count, magnitude_mean, magnitude_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare summary insert: %w", err)
	}
	defer stmt.Close()

	ts := at.UTC().Format(time.RFC3339Nano)
	for _, s := range summaries {
		if _, err := stmt.Exec(ts, s.Label, s.CentroidLat, s.CentroidLon,
			s.CoveringRadiusMeters, s.MemberCount, s.MagnitudeMean, s.MagnitudeMax); err != nil {
			return fmt.Errorf("insert summary label %d: %w", s.Label, err)
		}
	}
	return tx.Commit()
}

// RecentEvents returns up to limit archived events, newest first.
func (db *DB) RecentEvents(limit int) ([]quake.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT event_id, place, lat, lon, depth_km, magnitude, source_time, observed_at
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []quake.Event
	for rows.Next() {
		var ev quake.Event
		var observed string
		if err := rows.Scan(&ev.ID, &ev.Place, &ev.Lat, &ev.Lon, &ev.DepthKm,
			&ev.Magnitude, &ev.SourceTime, &observed); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, observed); perr == nil {
			ev.ObservedAt = t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecentSummaries returns summaries from passes at or after since, newest
// pass first, ordered by label within a pass.
func (db *DB) RecentSummaries(since time.Time, limit int) ([]StoredSummary, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`
		SELECT evaluated_at, label, centroid_lat, centroid_lon, covering_radius_m, member_count, magnitude_mean, magnitude_max
		FROM cluster_summaries
		WHERE evaluated_at >= ?
		ORDER BY evaluated_at DESC, label ASC
		LIMIT ?`, since.UTC().Format(time.RFC3339Nano), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent summaries: %w", err)
	}
	defer rows.Close()

	var out []StoredSummary
	for rows.Next() {
		var s StoredSummary
		var evaluated string
		if err := rows.Scan(&evaluated, &s.Label, &s.CentroidLat, &s.CentroidLon,
			&s.CoveringRadiusMeters, &s.MemberCount, &s.MagnitudeMean, &s.MagnitudeMax); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, evaluated); perr == nil {
			s.EvaluatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EventCount reports the number of archived events.
func (db *DB) EventCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}
