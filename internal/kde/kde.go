// Package kde turns a weighted particle cloud, grouped by timestep, into a
// dense grid of Gaussian kernel density estimates suitable for a heatmap.
package kde

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultBins is the number of evaluation points on the value axis.
const DefaultBins = 500

var (
	// ErrEmptyTable is returned when there are no points to render.
	ErrEmptyTable = errors.New("kde: empty particle table")
	// ErrEmptyGroup is returned when a timestep group has a zero or degenerate weight sum.
	ErrEmptyGroup = errors.New("kde: degenerate weight sum in timestep group")
	// ErrBandwidth is returned for a non-positive or non-finite bandwidth.
	ErrBandwidth = errors.New("kde: bandwidth must be positive and finite")
	// ErrBins is returned when fewer than two axis points are requested.
	ErrBins = errors.New("kde: at least two bins are required")
)

// Point is one weighted sample of a single channel at a timestep.
type Point struct {
	Timestep float64
	Weight   float64
	Value    float64
}

// Group is a maximal run of consecutive points sharing one timestep.
// Start is inclusive, End exclusive.
type Group struct {
	Timestep float64
	Start    int
	End      int
}

// Len returns the number of points in the group.
func (g Group) Len() int { return g.End - g.Start }

// Grid is the density estimate for every timestep group. Density has one
// row per axis point (low to high value) and one column per group
// (earliest timestep first).
type Grid struct {
	Density   *mat.Dense
	Axis      []float64
	Timesteps []float64
	Bandwidth float64
}

type config struct {
	bins int
}

// Option tweaks Render.
type Option func(*config)

// WithBins sets the number of evaluation points on the value axis.
func WithBins(n int) Option {
	return func(c *config) { c.bins = n }
}

// Groups partitions points into runs of identical timesteps with a single
// scan. Timesteps are compared for exact equality and points must already be
// sorted by timestep; nothing is validated.
func Groups(points []Point) []Group {
	var groups []Group
	row := 0
	for row < len(points) {
		x := points[row].Timestep
		next := row + 1
		for next < len(points) && points[next].Timestep == x {
			next++
		}
		groups = append(groups, Group{Timestep: x, Start: row, End: next})
		row = next
	}
	return groups
}

// NormalizeWeights returns a copy of weights scaled to sum to one.
func NormalizeWeights(weights []float64) ([]float64, error) {
	sum := floats.Sum(weights)
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: sum=%g", ErrEmptyGroup, sum)
	}
	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / sum
	}
	return normalized, nil
}

// Linspace returns size evenly spaced values from begin to end inclusive.
// It returns nil when size is less than one.
func Linspace(begin, end float64, size int) *mat.VecDense {
	if size < 1 {
		return nil
	}
	v := mat.NewVecDense(size, nil)
	if size == 1 {
		v.SetVec(0, begin)
		return v
	}
	delta := (end - begin) / float64(size-1)
	for i := 0; i < size; i++ {
		v.SetVec(i, begin+float64(i)*delta)
	}
	v.SetVec(size-1, end)
	return v
}

// Render evaluates a weighted Gaussian KDE with the given bandwidth for every
// timestep group of points. The value axis spans the global min and max of
// all values so that every column shares it.
func Render(points []Point, bandwidth float64, opts ...Option) (*Grid, error) {
	cfg := config{bins: DefaultBins}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bins < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrBins, cfg.bins)
	}
	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return nil, fmt.Errorf("%w: got %g", ErrBandwidth, bandwidth)
	}
	if len(points) == 0 {
		return nil, ErrEmptyTable
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	axis := Linspace(lo, hi, cfg.bins).RawVector().Data

	groups := Groups(points)
	density := mat.NewDense(cfg.bins, len(groups), nil)
	timesteps := make([]float64, len(groups))
	column := make([]float64, cfg.bins)
	for c, g := range groups {
		if err := evaluate(column, axis, points[g.Start:g.End], bandwidth); err != nil {
			return nil, fmt.Errorf("timestep %g: %w", g.Timestep, err)
		}
		density.SetCol(c, column)
		timesteps[c] = g.Timestep
	}

	return &Grid{Density: density, Axis: axis, Timesteps: timesteps, Bandwidth: bandwidth}, nil
}

// evaluate writes the weighted kernel mixture of group at every axis point into dst.
func evaluate(dst, axis []float64, group []Point, bandwidth float64) error {
	weights := make([]float64, len(group))
	for i, p := range group {
		weights[i] = p.Weight
	}
	weights, err := NormalizeWeights(weights)
	if err != nil {
		return err
	}

	for i := range dst {
		dst[i] = 0
	}
	for i, p := range group {
		kernel := distuv.Normal{Mu: p.Value, Sigma: bandwidth}
		for j, y := range axis {
			dst[j] += weights[i] * kernel.Prob(y)
		}
	}
	return nil
}

// Dims returns the number of axis points and timestep columns.
func (g *Grid) Dims() (bins, columns int) {
	return g.Density.Dims()
}

// Column returns a copy of the density curve for column c.
func (g *Grid) Column(c int) []float64 {
	return mat.Col(nil, c, g.Density)
}

// Spacing returns the distance between adjacent axis points.
func (g *Grid) Spacing() float64 {
	return g.Axis[1] - g.Axis[0]
}

// Integral approximates the area under column c with a Riemann sum.
func (g *Grid) Integral(c int) float64 {
	return floats.Sum(g.Column(c)) * g.Spacing()
}

// Max returns the largest density value in the grid.
func (g *Grid) Max() float64 {
	return mat.Max(g.Density)
}
