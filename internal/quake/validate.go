package quake

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// ParseRecord decodes a JSON payload into a RawRecord. Malformed JSON is a
// ValidationError so the caller can treat wire garbage and missing fields
// uniformly.
func ParseRecord(payload []byte) (RawRecord, error) {
	var rec RawRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return RawRecord{}, &ValidationError{Field: "payload", Reason: "not valid JSON"}
	}
	return rec, nil
}

// Validate normalizes a raw record into an Event or rejects it. The
// coordinate pair and magnitude are required; everything else is optional.
// ObservedAt is stamped with the supplied processing time rather than the
// source timestamp, so window eviction behaves correctly even for delayed
// or malformed source times. Records without an id get a generated one.
func Validate(rec RawRecord, now time.Time) (Event, error) {
	if len(rec.Coordinates) < 2 {
		return Event{}, &ValidationError{Field: "coordinates", Reason: "need [lon, lat]"}
	}
	lon, lat := rec.Coordinates[0], rec.Coordinates[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Event{}, &ValidationError{Field: "coordinates", Reason: "non-finite value"}
	}
	if lat < -90 || lat > 90 {
		return Event{}, &ValidationError{Field: "coordinates", Reason: "latitude out of range"}
	}
	if lon < -180 || lon > 180 {
		return Event{}, &ValidationError{Field: "coordinates", Reason: "longitude out of range"}
	}
	if rec.Mag == nil {
		return Event{}, &ValidationError{Field: "mag", Reason: "missing"}
	}
	mag := *rec.Mag
	if math.IsNaN(mag) || math.IsInf(mag, 0) {
		return Event{}, &ValidationError{Field: "mag", Reason: "non-finite value"}
	}
	if mag < 0 {
		return Event{}, &ValidationError{Field: "mag", Reason: "negative magnitude"}
	}

	ev := Event{
		ID:         rec.ID,
		Place:      rec.Place,
		Lat:        lat,
		Lon:        lon,
		Magnitude:  mag,
		SourceTime: rec.Time,
		ObservedAt: now.UTC(),
	}
	if len(rec.Coordinates) >= 3 {
		ev.DepthKm = rec.Coordinates[2]
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}
