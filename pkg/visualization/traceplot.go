package visualization

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"corect/pkg/analysis"
)

// PlotTrace renders the paired brightness and variability profiles of a
// trace as two side-by-side panels sharing a depth axis, and writes the
// figure as a PNG. rowPitch is the physical spacing between sections in mm;
// pass 1 to plot in section indices instead.
func PlotTrace(t *analysis.Trace, rowPitch float64, path string) error {
	if t.Len() == 0 {
		return fmt.Errorf("visualization: trace has no sections to plot")
	}
	if rowPitch <= 0 {
		rowPitch = 1.0
	}

	meanPlot := profilePanel("mean brightness (HU)", t.Mean, rowPitch)
	stdPlot := profilePanel("standard deviation (HU)", t.StdDev, rowPitch)
	meanPlot.Title.Text = "Core CT Scan Brightness Trace"

	plots := [][]*plot.Plot{{meanPlot, stdPlot}}
	img := vgimg.New(8*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: 2,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for col, p := range plots[0] {
		p.Draw(canvases[0][col])
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visualization: creating %s: %w", path, err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("visualization: writing %s: %w", path, err)
	}
	return nil
}

// profilePanel builds one panel of the trace figure: profile values on the
// horizontal axis against physical depth down the core on the vertical
// axis. The depth axis is inverted so depth increases downward, matching
// the orientation of the slice rasters.
func profilePanel(label string, values []float64, rowPitch float64) *plot.Plot {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = v
		pts[i].Y = -float64(i) * rowPitch
	}

	p := plot.New()
	p.X.Label.Text = label
	p.Y.Label.Text = "depth (mm)"
	// Show positive depths on the inverted axis.
	p.Y.Tick.Marker = negatedTicks{plot.DefaultTicks{}}

	line, err := plotter.NewLine(pts)
	if err == nil {
		p.Add(line)
	}
	p.Add(plotter.NewGrid())
	return p
}

// negatedTicks relabels an inverted axis with the magnitude of its values.
type negatedTicks struct {
	base plot.Ticker
}

func (t negatedTicks) Ticks(min, max float64) []plot.Tick {
	ticks := t.base.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		v := -ticks[i].Value
		if v == 0 {
			v = 0 // avoid a "-0" label
		}
		ticks[i].Label = fmt.Sprintf("%g", v)
	}
	return ticks
}
