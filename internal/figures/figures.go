// Package figures draws the particle filter diagnostics: density heatmaps
// with trajectory overlays and the effective particle count.
package figures

import (
	"github.com/makometr/gpsviz/internal/simlog"
	"gonum.org/v1/gonum/mat"
)

// DefaultReference is the effective particle count marked on the last figure.
const DefaultReference = 100

// Overlay is a summary series drawn over a density heatmap.
type Overlay struct {
	Label string
	Value func(simlog.SummaryRecord) float64
}

// Spec describes one density figure.
type Spec struct {
	Name      string
	Title     string
	Channel   simlog.Channel
	Bandwidth float64
	Overlays  []Overlay
}

// DefaultSpecs returns the velocity, position and Doppler figures in display order.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:      "velocity",
			Title:     "Receiver velocity (m/s)",
			Channel:   simlog.Velocity,
			Bandwidth: 0.25,
			Overlays: []Overlay{
				{Label: "True", Value: func(s simlog.SummaryRecord) float64 { return s.TrueVelocity }},
				{Label: "Particle mean", Value: func(s simlog.SummaryRecord) float64 { return s.MeanVelocity }},
			},
		},
		{
			Name:      "position",
			Title:     "Receiver position (m)",
			Channel:   simlog.Position,
			Bandwidth: 0.25,
			Overlays: []Overlay{
				{Label: "True", Value: func(s simlog.SummaryRecord) float64 { return s.TruePosition }},
				{Label: "Particle mean", Value: func(s simlog.SummaryRecord) float64 { return s.MeanPosition }},
			},
		},
		{
			Name:      "doppler",
			Title:     "Doppler measurement",
			Channel:   simlog.Doppler,
			Bandwidth: 1.5e-9,
			Overlays: []Overlay{
				{Label: "True", Value: func(s simlog.SummaryRecord) float64 { return s.TrueDoppler }},
				{Label: "Measurement", Value: func(s simlog.SummaryRecord) float64 { return s.MeasuredDoppler }},
				{Label: "Particle mean", Value: func(s simlog.SummaryRecord) float64 { return s.MeanDoppler }},
			},
		},
	}
}

// Trace holds the values y = f(t) of one series.
type Trace struct {
	xs *mat.VecDense
	ys *mat.VecDense
}

func newTrace(size int) *Trace {
	if size == 0 {
		return &Trace{}
	}
	return &Trace{xs: mat.NewVecDense(size, nil), ys: mat.NewVecDense(size, nil)}
}

// Len implements plotter.XYer.
func (t *Trace) Len() int {
	if t.xs == nil {
		return 0
	}
	return t.xs.Len()
}

// XY implements plotter.XYer.
func (t *Trace) XY(i int) (float64, float64) {
	return t.xs.AtVec(i), t.ys.AtVec(i)
}

// SummaryTrace extracts one summary series against timestep.
func SummaryTrace(summary []simlog.SummaryRecord, value func(simlog.SummaryRecord) float64) *Trace {
	tr := newTrace(len(summary))
	for i, s := range summary {
		tr.xs.SetVec(i, s.Timestep)
		tr.ys.SetVec(i, value(s))
	}
	return tr
}

// EffectiveTrace is the effective particle count against timestep.
func EffectiveTrace(summary []simlog.SummaryRecord) *Trace {
	return SummaryTrace(summary, func(s simlog.SummaryRecord) float64 { return s.EffectiveParticles })
}
