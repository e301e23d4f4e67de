package figures

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/makometr/gpsviz/internal/kde"
	"github.com/makometr/gpsviz/internal/simlog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure size used for saved images.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// densityXYZ adapts a kde.Grid to plotter.GridXYZ with time on X and value on Y.
type densityXYZ struct {
	grid *kde.Grid
}

func (d densityXYZ) Dims() (c, r int) {
	r, c = d.grid.Dims()
	return c, r
}

func (d densityXYZ) Z(c, r int) float64 { return d.grid.Density.At(r, c) }
func (d densityXYZ) X(c int) float64    { return d.grid.Timesteps[c] }
func (d densityXYZ) Y(r int) float64    { return d.grid.Axis[r] }

// DensityPlot draws grid as a heatmap and the spec's summary overlays on top.
func DensityPlot(spec Spec, grid *kde.Grid, summary []simlog.SummaryRecord) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = spec.Channel.String()
	p.Legend.Top = true

	hm := plotter.NewHeatMap(densityXYZ{grid}, palette.Heat(256, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	if len(summary) == 0 {
		return p, nil
	}
	for i, o := range spec.Overlays {
		l, err := plotter.NewLine(SummaryTrace(summary, o.Value))
		if err != nil {
			return nil, fmt.Errorf("%s overlay %q: %w", spec.Name, o.Label, err)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(o.Label, l)
	}
	return p, nil
}

// EffectivePlot draws the effective particle count with a horizontal
// reference line at ref.
func EffectivePlot(summary []simlog.SummaryRecord, ref float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Effective particles"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Particles"

	s, err := plotter.NewScatter(EffectiveTrace(summary))
	if err != nil {
		return nil, fmt.Errorf("effective particles: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Color = plotutil.Color(0)
	p.Add(s)

	line := plotter.NewFunction(func(float64) float64 { return ref })
	line.LineStyle.Color = plotutil.Color(1)
	line.LineStyle.Width = vg.Points(1)
	if len(summary) > 0 {
		line.XMin = summary[0].Timestep
		line.XMax = summary[len(summary)-1].Timestep
	}
	p.Add(line)

	p.Y.Min = math.Min(p.Y.Min, ref)
	p.Y.Max = math.Max(p.Y.Max, ref)
	return p, nil
}

// SavePNG writes p to dir/name.png and returns the path.
func SavePNG(p *plot.Plot, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, name+".png")
	if err := p.Save(Width, Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
