package figures

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/makometr/gpsviz/internal/kde"
	"github.com/makometr/gpsviz/internal/simlog"
)

// MaxHTMLPoints bounds the number of density cells sent to the browser per chart.
const MaxHTMLPoints = 40000

// hotColors approximates the "hot" colour map from black through red and yellow to white.
var hotColors = []string{"#000000", "#4b0000", "#960000", "#e10000", "#ff2d00", "#ff7800", "#ffc300", "#ffff10", "#ffff88", "#ffffff"}

// DensityPanel pairs a figure spec with its rendered grid.
type DensityPanel struct {
	Spec Spec
	Grid *kde.Grid
}

// rowStride returns the step over axis rows that keeps rows*cols under budget.
func rowStride(rows, cols, budget int) int {
	if rows*cols <= budget {
		return 1
	}
	return int(math.Ceil(float64(rows*cols) / float64(budget)))
}

func densityChart(panel DensityPanel, summary []simlog.SummaryRecord) *charts.Scatter {
	grid := panel.Grid
	rows, cols := grid.Dims()
	stride := rowStride(rows, cols, MaxHTMLPoints)

	data := make([]opts.ScatterData, 0, (rows/stride+1)*cols)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r += stride {
			data = append(data, opts.ScatterData{Value: []interface{}{grid.Timesteps[c], grid.Axis[r], grid.Density.At(r, c)}})
		}
	}

	maxDensity := grid.Max()
	if maxDensity == 0 {
		maxDensity = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: panel.Spec.Title, Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: panel.Spec.Title, Subtitle: fmt.Sprintf("bandwidth=%g columns=%d stride=%d", grid.Bandwidth, cols, stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25, Min: grid.Timesteps[0], Max: grid.Timesteps[cols-1]}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: panel.Spec.Channel.String(), Min: grid.Axis[0], Max: grid.Axis[rows-1]}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxDensity),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: hotColors},
		}),
	)
	scatter.AddSeries("density", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	for _, o := range panel.Spec.Overlays {
		line := charts.NewLine()
		points := make([]opts.LineData, len(summary))
		for i, s := range summary {
			points[i] = opts.LineData{Value: []interface{}{s.Timestep, o.Value(s)}}
		}
		line.AddSeries(o.Label, points)
		scatter.Overlap(line)
	}
	return scatter
}

func effectiveChart(summary []simlog.SummaryRecord, ref float64) *charts.Scatter {
	data := make([]opts.ScatterData, len(summary))
	for i, s := range summary {
		data[i] = opts.ScatterData{Value: []interface{}{s.Timestep, s.EffectiveParticles}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Effective particles", Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Effective particles"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Particles"}),
	)
	scatter.AddSeries("effective", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "reference", YAxis: ref}),
	)
	return scatter
}

// WriteHTML renders every density panel and the effective particle chart as
// one interactive page.
func WriteHTML(w io.Writer, panels []DensityPanel, summary []simlog.SummaryRecord, ref float64) error {
	page := components.NewPage()
	for _, panel := range panels {
		page.AddCharts(densityChart(panel, summary))
	}
	page.AddCharts(effectiveChart(summary, ref))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
