package api

import (
	"fmt"
	"image/color"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/tremor-data/quakewatch/internal/httputil"
	"github.com/tremor-data/quakewatch/internal/quake"
)

var clusterPalette = []color.RGBA{
	{R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
	{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff},
	{R: 0x35, G: 0xb7, B: 0x79, A: 0xff},
	{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
	{R: 0x48, G: 0x27, B: 0x77, A: 0xff},
}

// handleClusterMapPNG renders the current snapshot as a static PNG: one
// scatter series per cluster, noise in grey, centroids as crosses.
func (s *Server) handleClusterMapPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	snap := s.engine.LastSnapshot()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Earthquake Clusters (%d events, %d clusters)", len(snap.Events), len(snap.Clusters))
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90

	byLabel := make(map[int]plotter.XYs)
	for _, ev := range snap.Events {
		byLabel[ev.Label] = append(byLabel[ev.Label], plotter.XY{X: ev.Lon, Y: ev.Lat})
	}

	for label, pts := range byLabel {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build scatter: %v", err))
			return
		}
		if label == quake.NoiseLabel {
			sc.GlyphStyle.Color = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
			sc.GlyphStyle.Radius = vg.Points(2)
			p.Legend.Add("noise", sc)
		} else {
			sc.GlyphStyle.Color = clusterPalette[(label-1)%len(clusterPalette)]
			sc.GlyphStyle.Radius = vg.Points(3)
			p.Legend.Add(fmt.Sprintf("cluster %d", label), sc)
		}
		p.Add(sc)
	}

	if len(snap.Clusters) > 0 {
		centroids := make(plotter.XYs, 0, len(snap.Clusters))
		for _, c := range snap.Clusters {
			centroids = append(centroids, plotter.XY{X: c.CentroidLon, Y: c.CentroidLat})
		}
		sc, err := plotter.NewScatter(centroids)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build centroid scatter: %v", err))
			return
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 0xff, A: 0xff}
		sc.GlyphStyle.Radius = vg.Points(5)
		p.Add(sc)
		p.Legend.Add("centroids", sc)
	}

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}
