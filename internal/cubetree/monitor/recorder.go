// Package monitor records cube-tree telemetry over a run and renders it as
// PNG plots. It is development tooling for tuning branching and capacity
// choices, not part of the index itself.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/cubetree/internal/cubetree"
)

// Sample is one per-tick snapshot of tree shape and relocation cost.
type Sample struct {
	Tick      int
	Stats     cubetree.TreeStats
	Relocated int
	UpdateDur time.Duration
}

// Recorder accumulates samples during a run for plotting afterwards.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Sample records one tick's telemetry.
func (r *Recorder) Sample(tick int, stats cubetree.TreeStats, relocated int, updateDur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, Sample{
		Tick:      tick,
		Stats:     stats,
		Relocated: relocated,
		UpdateDur: updateDur,
	})
}

// Len returns the number of samples recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// WritePlots renders the accumulated series under dir: shape.png (node,
// leaf and entity counts plus depth), relocation.png (entities moved and
// update latency per tick), and, when positions are supplied, an XY
// scatter of the final entity layout in positions.png.
func (r *Recorder) WritePlots(dir string, positions []r3.Vec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		return fmt.Errorf("no samples recorded")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	if err := r.writeShapePlot(dir); err != nil {
		return err
	}
	if err := r.writeRelocationPlot(dir); err != nil {
		return err
	}
	if len(positions) > 0 {
		if err := writePositionsPlot(dir, positions); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) writeShapePlot(dir string) error {
	p := plot.New()
	p.Title.Text = "Tree Shape"
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Count"

	series := []struct {
		name  string
		color color.Color
		value func(Sample) float64
	}{
		{"nodes", color.RGBA{R: 220, A: 255}, func(s Sample) float64 { return float64(s.Stats.Nodes) }},
		{"leaves", color.RGBA{G: 160, A: 255}, func(s Sample) float64 { return float64(s.Stats.Leaves) }},
		{"entities", color.RGBA{B: 220, A: 255}, func(s Sample) float64 { return float64(s.Stats.Entities) }},
		{"max depth", color.RGBA{R: 160, B: 160, A: 255}, func(s Sample) float64 { return float64(s.Stats.MaxDepth) }},
	}
	for _, sr := range series {
		pts := make(plotter.XYs, 0, len(r.samples))
		for _, s := range r.samples {
			pts = append(pts, plotter.XY{X: float64(s.Tick), Y: sr.value(s)})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("shape line %s: %w", sr.name, err)
		}
		line.Color = sr.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(sr.name, line)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, filepath.Join(dir, "shape.png")); err != nil {
		return fmt.Errorf("save shape plot: %w", err)
	}
	return nil
}

func (r *Recorder) writeRelocationPlot(dir string) error {
	p := plot.New()
	p.Title.Text = "Relocation"
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Entities moved / update ms"

	movedPts := make(plotter.XYs, 0, len(r.samples))
	latPts := make(plotter.XYs, 0, len(r.samples))
	for _, s := range r.samples {
		movedPts = append(movedPts, plotter.XY{X: float64(s.Tick), Y: float64(s.Relocated)})
		latPts = append(latPts, plotter.XY{X: float64(s.Tick), Y: float64(s.UpdateDur.Microseconds()) / 1000.0})
	}

	moved, err := plotter.NewLine(movedPts)
	if err != nil {
		return fmt.Errorf("relocation line: %w", err)
	}
	moved.Color = color.RGBA{R: 220, A: 255}
	moved.Width = vg.Points(1)
	p.Add(moved)
	p.Legend.Add("moved", moved)

	lat, err := plotter.NewLine(latPts)
	if err != nil {
		return fmt.Errorf("latency line: %w", err)
	}
	lat.Color = color.RGBA{B: 220, A: 255}
	lat.Width = vg.Points(1)
	p.Add(lat)
	p.Legend.Add("update ms", lat)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, filepath.Join(dir, "relocation.png")); err != nil {
		return fmt.Errorf("save relocation plot: %w", err)
	}
	return nil
}

// writePositionsPlot renders the XY projection of the final entity layout.
func writePositionsPlot(dir string, positions []r3.Vec) error {
	p := plot.New()
	p.Title.Text = "Entity Positions (XY projection)"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	pts := make(plotter.XYs, 0, len(positions))
	for _, pos := range positions {
		pts = append(pts, plotter.XY{X: pos.X, Y: pos.Y})
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("positions scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.RGBA{B: 200, A: 255}
	p.Add(scatter)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, filepath.Join(dir, "positions.png")); err != nil {
		return fmt.Errorf("save positions plot: %w", err)
	}
	return nil
}
