package figures

import (
	"bytes"
	"fmt"
	"math"

	"github.com/icza/mjpeg"
	"github.com/makometr/gpsviz/internal/kde"
	"github.com/makometr/gpsviz/internal/simlog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Animation frame geometry. JPEG canvases are rasterised at 96 dpi.
const (
	frameWidth  = 8 * vg.Inch
	frameHeight = 5 * vg.Inch
	frameDPI    = 96
)

// Frame draws the density curve of column c with vertical markers at the
// overlay values of the matching summary row, if there is one.
func Frame(spec Spec, grid *kde.Grid, summary []simlog.SummaryRecord, c int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s, t = %g s", spec.Title, grid.Timesteps[c])
	p.X.Label.Text = spec.Channel.String()
	p.Y.Label.Text = "Density"
	p.Legend.Top = true

	column := grid.Column(c)
	pts := make(plotter.XYs, len(column))
	for i := range pts {
		pts[i].X = grid.Axis[i]
		pts[i].Y = column[i]
	}
	density, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	density.LineStyle.Width = 2
	p.Add(density)
	p.Legend.Add("Density", density)

	top := grid.Max()
	if c < len(summary) {
		for i, o := range spec.Overlays {
			v := o.Value(summary[c])
			marker, err := plotter.NewLine(plotter.XYs{{X: v, Y: 0}, {X: v, Y: top}})
			if err != nil {
				return nil, fmt.Errorf("overlay %q: %w", o.Label, err)
			}
			marker.LineStyle.Width = 1
			marker.LineStyle.Color = plotutil.Color(i + 1)
			p.Add(marker)
			p.Legend.Add(o.Label, marker)
		}
	}

	p.X.Min = grid.Axis[0]
	p.X.Max = grid.Axis[len(grid.Axis)-1]
	p.Y.Min = 0
	p.Y.Max = top
	return p, nil
}

// WriteAnimation writes one JPEG frame per timestep column into an MJPEG AVI at path.
func WriteAnimation(path string, spec Spec, grid *kde.Grid, summary []simlog.SummaryRecord, fps int) (err error) {
	w := int32(math.Round(frameWidth.Dots(frameDPI)))
	h := int32(math.Round(frameHeight.Dots(frameDPI)))
	aw, err := mjpeg.New(path, w, h, int32(fps))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := aw.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	_, cols := grid.Dims()
	var buf bytes.Buffer
	for c := 0; c < cols; c++ {
		p, err := Frame(spec, grid, summary, c)
		if err != nil {
			return fmt.Errorf("frame %d: %w", c, err)
		}
		wt, err := p.WriterTo(frameWidth, frameHeight, "jpg")
		if err != nil {
			return err
		}
		buf.Reset()
		if _, err := wt.WriteTo(&buf); err != nil {
			return fmt.Errorf("frame %d: %w", c, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			return fmt.Errorf("frame %d: %w", c, err)
		}
	}
	return nil
}
