// Package simlog reads and writes the two text tables produced by the GPS
// particle filter simulation: the per-timestep summary log and the
// per-timestep, per-particle log.
package simlog

import (
	"cmp"
	"fmt"

	"github.com/makometr/gpsviz/internal/kde"
	"golang.org/x/exp/slices"
)

// Default file names written by the simulator.
const (
	SummaryFile  = "summary_log.txt"
	ParticleFile = "particle_log.txt"
)

// Minimum number of columns per row.
const (
	summaryColumns  = 10
	particleColumns = 5
)

// SummaryRecord is one row of the summary log.
type SummaryRecord struct {
	Timestep           float64
	TotalWeight        float64
	EffectiveParticles float64
	TrueDoppler        float64
	MeasuredDoppler    float64
	TruePosition       float64
	TrueVelocity       float64
	MeanDoppler        float64
	MeanPosition       float64
	MeanVelocity       float64
}

// ParticleRecord is one row of the particle log.
type ParticleRecord struct {
	Timestep float64
	Weight   float64
	Doppler  float64
	Position float64
	Velocity float64
}

// Channel selects which particle value feeds a density estimate.
type Channel int

const (
	Doppler Channel = iota
	Position
	Velocity
)

// Channels lists every channel in particle log column order.
var Channels = []Channel{Doppler, Position, Velocity}

func (c Channel) String() string {
	switch c {
	case Doppler:
		return "doppler"
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Column returns the particle log column holding the channel's value.
func (c Channel) Column() int {
	return int(c) + 2
}

// ParseChannel maps a channel name back to its Channel.
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", name)
}

// Value returns the particle's value for channel c.
func (p ParticleRecord) Value(c Channel) float64 {
	switch c {
	case Doppler:
		return p.Doppler
	case Position:
		return p.Position
	case Velocity:
		return p.Velocity
	}
	panic(fmt.Sprintf("simlog: invalid channel %d", int(c)))
}

// Points projects the particle table onto one channel for density estimation.
func Points(particles []ParticleRecord, c Channel) []kde.Point {
	pts := make([]kde.Point, len(particles))
	for i, p := range particles {
		pts[i] = kde.Point{Timestep: p.Timestep, Weight: p.Weight, Value: p.Value(c)}
	}
	return pts
}

// Sorted reports whether particles are in non-decreasing timestep order.
func Sorted(particles []ParticleRecord) bool {
	return slices.IsSortedFunc(particles, func(a, b ParticleRecord) int {
		return cmp.Compare(a.Timestep, b.Timestep)
	})
}

// Timesteps returns the summary timesteps in table order.
func Timesteps(summary []SummaryRecord) []float64 {
	ts := make([]float64, len(summary))
	for i, s := range summary {
		ts[i] = s.Timestep
	}
	return ts
}
