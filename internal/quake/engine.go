package quake

import (
	"sync"

	"github.com/tremor-data/quakewatch/internal/monitoring"
	"github.com/tremor-data/quakewatch/internal/timeutil"
)

// Engine is the evaluation driver. Each triggering event runs two steps:
// ingest (validate and append) and evaluate (evict stale events, assign
// clusters, summarize, emit a snapshot). Every evaluation is a fresh
// computation over the live window, never an incremental update, so a
// failed pass leaves no residue.
//
// The engine serializes all access to its buffer with one mutex, so it is
// safe for concurrent producers even though the design only needs one.
type Engine struct {
	mu     sync.Mutex
	buf    *Buffer
	params Params
	clock  timeutil.Clock
	last   Snapshot
}

// NewEngine creates an engine with the given parameters. A nil clock means
// the real clock.
func NewEngine(params Params, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Engine{
		buf:    NewBuffer(),
		params: params,
		clock:  clock,
	}
}

// Params returns the engine's clustering parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Process validates a raw record, ingests the resulting event, and runs an
// evaluation pass. A ValidationError is returned to the caller, who drops
// the record; the window is untouched in that case.
func (e *Engine) Process(rec RawRecord) (Snapshot, error) {
	_, snap, err := e.ProcessRecord(rec)
	return snap, err
}

// ProcessRecord is Process plus the validated event, for callers that also
// archive what they ingest.
func (e *Engine) ProcessRecord(rec RawRecord) (Event, Snapshot, error) {
	ev, err := Validate(rec, e.clock.Now())
	if err != nil {
		return Event{}, Snapshot{}, err
	}
	return ev, e.Ingest(ev), nil
}

// Ingest appends an already-validated event and evaluates the window.
func (e *Engine) Ingest(ev Event) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Append(ev)
	return e.evaluateLocked()
}

// Evaluate re-runs eviction and clustering without ingesting anything,
// e.g. on a timer so clusters decay as the window slides.
func (e *Engine) Evaluate() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluateLocked()
}

// LastSnapshot returns the most recent evaluation result.
func (e *Engine) LastSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// WindowLen reports the number of events currently in the window.
func (e *Engine) WindowLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Len()
}

func (e *Engine) evaluateLocked() Snapshot {
	now := e.clock.Now()
	e.buf.Evict(now, e.params.Window())
	events := e.buf.Snapshot()

	snap := Snapshot{At: now}

	labels, err := AssignClusters(events, AssignerParams{
		EpsilonKm: e.params.EpsilonKm,
		MinPoints: e.params.MinPoints,
	})
	if err != nil {
		// Pass-fatal only: keep the buffer, report everything as noise.
		monitoring.Logf("evaluation pass failed, emitting noise-only snapshot: %v", err)
		snap.Events = labelAll(events, NoiseLabel)
		e.last = snap
		return snap
	}

	summaries, labels := Summarize(events, labels, SummaryParams{
		MinMembers:   e.params.MinClusterSize,
		RadiusMargin: e.params.RadiusMargin,
	})

	snap.Events = make([]LabeledEvent, len(events))
	for i, ev := range events {
		snap.Events[i] = labeled(ev, labels[i])
	}
	snap.Clusters = summaries
	e.last = snap
	return snap
}

func labelAll(events []Event, label int) []LabeledEvent {
	out := make([]LabeledEvent, len(events))
	for i, ev := range events {
		out[i] = labeled(ev, label)
	}
	return out
}

func labeled(ev Event, label int) LabeledEvent {
	return LabeledEvent{
		ID:         ev.ID,
		Lat:        ev.Lat,
		Lon:        ev.Lon,
		Magnitude:  ev.Magnitude,
		ObservedAt: ev.ObservedAt,
		Label:      label,
	}
}
