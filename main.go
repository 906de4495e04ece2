// quakewatch polls a GeoJSON earthquake feed, maintains a sliding window of
// recent events, clusters them by great-circle proximity, and serves the
// results over HTTP. Events and per-pass cluster summaries are archived to
// sqlite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tremor-data/quakewatch/api"
	"github.com/tremor-data/quakewatch/internal/config"
	"github.com/tremor-data/quakewatch/internal/feed"
	"github.com/tremor-data/quakewatch/internal/quake"
	"github.com/tremor-data/quakewatch/internal/quakedb"
	"github.com/tremor-data/quakewatch/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to JSON config file")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	devMode     = flag.Bool("dev", false, "Replay fixtures instead of polling the live feed")
	fixtures    = flag.String("fixtures", "fixtures.ndjson", "NDJSON fixture file for -dev mode")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// evaluateEvery is how often the engine re-evaluates without new input so
// clusters decay as the window slides past stale events.
const evaluateEvery = time.Minute

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	listenAddr := cfg.GetListenAddr()
	if *listen != "" {
		listenAddr = *listen
	}

	db, err := quakedb.Open(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(cfg.GetMigrationsDir()); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	engine := quake.NewEngine(cfg.EngineParams(), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Record source: live feed poller, or a fixture replay in dev mode.
	var records <-chan quake.RawRecord
	if *devMode {
		records = replayFixtures(ctx, &wg, *fixtures)
	} else {
		poller := feed.NewPoller(cfg.GetFeedURL(), cfg.GetPollInterval(), nil, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("feed poller stopped: %v", err)
			}
			log.Print("feed poller terminated")
		}()
		records = poller.Records()
	}

	// Ingest loop: validate, cluster, archive.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ingestLoop(ctx, engine, db, records)
		log.Print("ingest routine terminated")
	}()

	// Periodic re-evaluation so the snapshot stays fresh between arrivals.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(evaluateEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				engine.Evaluate()
			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP server goroutine.
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(engine, db).ServeMux()
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    listenAddr,
			Handler: h,
		}

		go func() {
			log.Printf("listening on %s", listenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}

// ingestLoop drains records through the engine. Invalid records are logged
// and dropped; valid ones are archived along with the summaries of the pass
// they triggered.
func ingestLoop(ctx context.Context, engine *quake.Engine, db *quakedb.DB, records <-chan quake.RawRecord) {
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			ev, snap, err := engine.ProcessRecord(rec)
			if err != nil {
				log.Printf("dropping record %q: %v", rec.ID, err)
				continue
			}
			if err := db.InsertEvent(ev); err != nil {
				log.Printf("failed to archive event %s: %v", ev.ID, err)
			}
			if err := db.InsertSummaries(snap.At, snap.Clusters); err != nil {
				log.Printf("failed to archive summaries: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// replayFixtures streams an NDJSON fixture file as if it were live feed
// output, for offline development against canned data.
func replayFixtures(ctx context.Context, wg *sync.WaitGroup, path string) <-chan quake.RawRecord {
	out := make(chan quake.RawRecord, 64)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open fixtures file: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		defer f.Close()

		n, skipped, err := feed.ReadNDJSON(f, func(rec quake.RawRecord) error {
			select {
			case out <- rec:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("fixture replay stopped: %v", err)
		}
		log.Printf("fixture replay complete: %d records, %d skipped", n, skipped)
	}()
	return out
}
