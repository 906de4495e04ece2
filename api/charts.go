package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tremor-data/quakewatch/internal/httputil"
	"github.com/tremor-data/quakewatch/internal/quake"
)

// handleClusterMap renders the current snapshot as an HTML scatter chart:
// events plotted by lon/lat and coloured by cluster label, centroids as a
// second, larger series. Debugging view for eyeballing cluster shape
// without a frontend.
func (s *Server) handleClusterMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	snap := s.engine.LastSnapshot()

	events := make([]opts.ScatterData, 0, len(snap.Events))
	maxLabel := 1
	for _, ev := range snap.Events {
		if ev.Label > maxLabel {
			maxLabel = ev.Label
		}
		events = append(events, opts.ScatterData{
			Name:  ev.ID,
			Value: []interface{}{ev.Lon, ev.Lat, ev.Label},
		})
	}

	centroids := make([]opts.ScatterData, 0, len(snap.Clusters))
	for _, c := range snap.Clusters {
		centroids = append(centroids, opts.ScatterData{
			Name:  fmt.Sprintf("cluster %d (r=%.0fm)", c.Label, c.CoveringRadiusMeters),
			Value: []interface{}{c.CentroidLon, c.CentroidLat, c.Label},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Earthquake Clusters",
			Theme:     "dark",
			Width:     "1000px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Earthquake Clusters",
			Subtitle: fmt.Sprintf("events=%d clusters=%d at=%s", len(snap.Events), len(snap.Clusters), snap.At.Format("15:04:05 MST")),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -180, Max: 180, Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -90, Max: 90, Name: "Latitude", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(quake.NoiseLabel),
			Max:        float32(maxLabel),
			Dimension:  "2",
			InRange: &opts.VisualMapInRange{
				Color: []string{"#666666", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
			},
		}),
	)

	scatter.AddSeries("events", events, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("centroids", centroids, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 18, Symbol: "diamond"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
