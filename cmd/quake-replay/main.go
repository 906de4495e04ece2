// quake-replay runs NDJSON earthquake records through the clustering
// engine offline and prints the resulting snapshot. Useful for tuning
// epsilon/min-points against canned feed captures without a running
// daemon.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tremor-data/quakewatch/internal/feed"
	"github.com/tremor-data/quakewatch/internal/quake"
)

func main() {
	var (
		input      string
		windowMin  int
		epsilonKm  float64
		minPoints  int
		minCluster int
		margin     float64
		verbose    bool
	)

	flag.StringVar(&input, "input", "-", "NDJSON input file, or - for stdin")
	flag.IntVar(&windowMin, "window", quake.DefaultWindowMinutes, "window length in minutes")
	flag.Float64Var(&epsilonKm, "epsilon", quake.DefaultEpsilonKm, "neighborhood radius in km")
	flag.IntVar(&minPoints, "min-points", quake.DefaultMinPoints, "minimum neighborhood size for a core point")
	flag.IntVar(&minCluster, "min-cluster-size", quake.DefaultMinClusterSize, "minimum members for a cluster summary")
	flag.Float64Var(&margin, "margin", quake.DefaultRadiusMargin, "covering radius safety margin")
	flag.BoolVar(&verbose, "v", false, "print one line per evaluation pass")
	flag.Parse()

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		r = f
	}

	engine := quake.NewEngine(quake.Params{
		WindowMinutes:  windowMin,
		EpsilonKm:      epsilonKm,
		MinPoints:      minPoints,
		MinClusterSize: minCluster,
		RadiusMargin:   margin,
	}, nil)

	pass := 0
	dropped := 0
	records, skipped, err := feed.ReadNDJSON(r, func(rec quake.RawRecord) error {
		snap, perr := engine.Process(rec)
		if perr != nil {
			dropped++
			log.Printf("dropping record %q: %v", rec.ID, perr)
			return nil
		}
		pass++
		if verbose {
			fmt.Printf("pass %d: window=%d clusters=%d\n", pass, len(snap.Events), len(snap.Clusters))
		}
		return nil
	})
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	fmt.Printf("replayed %d records (%d undecodable lines, %d dropped by validation)\n",
		records, skipped, dropped)

	snap := engine.LastSnapshot()
	for _, c := range snap.Clusters {
		fmt.Printf("cluster %d: members=%d centroid=(%.4f, %.4f) radius=%.0fm mag mean=%.2f max=%.2f\n",
			c.Label, c.MemberCount, c.CentroidLat, c.CentroidLon,
			c.CoveringRadiusMeters, c.MagnitudeMean, c.MagnitudeMax)
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("encode snapshot: %v", err)
	}
	fmt.Println(string(out))
}
