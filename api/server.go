// Package api exposes the clustering engine and the event archive over
// HTTP: JSON endpoints for snapshots, events and summaries, plus chart
// renderings of the current cluster map.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tremor-data/quakewatch/internal/httputil"
	"github.com/tremor-data/quakewatch/internal/monitoring"
	"github.com/tremor-data/quakewatch/internal/quake"
	"github.com/tremor-data/quakewatch/internal/quakedb"
)

// maxIngestBody bounds a single POSTed record.
const maxIngestBody = 1 << 20

type Server struct {
	engine *quake.Engine
	db     *quakedb.DB
}

// NewServer wires the engine and the archive into a server. db may be nil;
// archive-backed endpoints then answer 503.
func NewServer(engine *quake.Engine, db *quakedb.DB) *Server {
	return &Server{engine: engine, db: db}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/summaries", s.handleSummaries)
	mux.HandleFunc("/charts/map", s.handleClusterMap)
	mux.HandleFunc("/charts/map.png", s.handleClusterMapPNG)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"window_events": s.engine.WindowLen(),
	})
}

// handleSnapshot returns the result of the most recent evaluation pass.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.engine.LastSnapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEvents(w, r)
	case http.MethodPost:
		s.ingestEvent(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "archive unavailable")
		return
	}
	events, err := s.db.RecentEvents(queryInt(r, "limit", 100))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to read events")
		return
	}
	if events == nil {
		events = []quake.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

// ingestEvent accepts one raw record, runs it through the engine and
// responds with the resulting snapshot. Invalid records are rejected with
// 400 and leave the window untouched.
func (s *Server) ingestEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	rec, err := quake.ParseRecord(body)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, snap, err := s.engine.ProcessRecord(rec)
	if err != nil {
		var verr *quake.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteJSONError(w, http.StatusBadRequest, verr.Error())
			return
		}
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.db != nil {
		if err := s.db.InsertEvent(ev); err != nil {
			// Archive failure does not fail the ingest.
			monitoring.Logf("failed to archive event %s: %v", ev.ID, err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "archive unavailable")
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	summaries, err := s.db.RecentSummaries(since, queryInt(r, "limit", 200))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to read summaries")
		return
	}
	if summaries == nil {
		summaries = []quakedb.StoredSummary{}
	}
	httputil.WriteJSON(w, http.StatusOK, summaries)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
