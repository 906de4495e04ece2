// Package feed pulls raw earthquake records from the USGS GeoJSON feed and
// from NDJSON archive files. It hands unvalidated RawRecords to the caller;
// validation belongs to the clustering core.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tremor-data/quakewatch/internal/httputil"
	"github.com/tremor-data/quakewatch/internal/monitoring"
	"github.com/tremor-data/quakewatch/internal/quake"
	"github.com/tremor-data/quakewatch/internal/timeutil"
)

// DefaultFeedURL is the USGS summary feed for the last hour of quakes.
const DefaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"

// DefaultPollInterval matches the upstream feed's refresh cadence.
const DefaultPollInterval = 30 * time.Second

// GeoJSON feed shape, reduced to the fields we consume.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place string   `json:"place"`
		Time  int64    `json:"time"` // epoch milliseconds
		URL   string   `json:"url"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// ParseFeed converts a USGS GeoJSON payload into raw records, one per
// feature, preserving the [lon, lat, depth] coordinate order.
func ParseFeed(data []byte) ([]quake.RawRecord, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	records := make([]quake.RawRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		rec := quake.RawRecord{
			ID:          f.ID,
			Place:       f.Properties.Place,
			Mag:         f.Properties.Mag,
			URL:         f.Properties.URL,
			Coordinates: f.Geometry.Coordinates,
		}
		if f.Properties.Time > 0 {
			rec.Time = time.UnixMilli(f.Properties.Time).UTC().Format("2006-01-02 15:04:05")
		}
		records = append(records, rec)
	}
	return records, nil
}

// Poller fetches the feed on an interval and emits each record once,
// deduplicating by source id across cycles. Fetch and decode failures are
// logged and the next cycle proceeds; the stream never dies on a bad poll.
type Poller struct {
	url      string
	interval time.Duration
	client   httputil.Client
	clock    timeutil.Clock
	seen     map[string]bool
	out      chan quake.RawRecord
}

// NewPoller creates a poller. A nil client uses http.DefaultClient; a nil
// clock uses the real clock.
func NewPoller(url string, interval time.Duration, client httputil.Client, clock timeutil.Clock) *Poller {
	if url == "" {
		url = DefaultFeedURL
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Poller{
		url:      url,
		interval: interval,
		client:   client,
		clock:    clock,
		seen:     make(map[string]bool),
		out:      make(chan quake.RawRecord, 64),
	}
}

// Records is the stream of newly observed records.
func (p *Poller) Records() <-chan quake.RawRecord {
	return p.out
}

// Run polls until the context is canceled. The first fetch happens
// immediately; subsequent fetches follow the ticker. The records channel is
// closed on return.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.out)

	p.pollOnce(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			p.pollOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	records, err := p.fetch(ctx)
	if err != nil {
		monitoring.Logf("feed poll failed: %v", err)
		return
	}

	fresh := 0
	for _, rec := range records {
		if rec.ID != "" && p.seen[rec.ID] {
			continue
		}
		if rec.ID != "" {
			p.seen[rec.ID] = true
		}
		fresh++
		select {
		case p.out <- rec:
		case <-ctx.Done():
			return
		}
	}
	if fresh > 0 {
		monitoring.Logf("feed poll: %d new of %d records", fresh, len(records))
	}
}

func (p *Poller) fetch(ctx context.Context) ([]quake.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", p.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return ParseFeed(body)
}

// ReadNDJSON streams one-record-per-line JSON (the archive file format of
// the upstream producer) to fn. Blank lines are skipped; undecodable lines
// are counted and skipped, matching the drop-and-continue contract.
func ReadNDJSON(r io.Reader, fn func(quake.RawRecord) error) (records, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, perr := quake.ParseRecord(line)
		if perr != nil {
			skipped++
			continue
		}
		if err := fn(rec); err != nil {
			return records, skipped, err
		}
		records++
	}
	return records, skipped, sc.Err()
}
