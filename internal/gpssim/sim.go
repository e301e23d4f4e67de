// Package gpssim simulates a GPS receiver moving along its local vertical,
// tracked by a particle filter fed with noisy Doppler measurements from one
// satellite. Each step produces the summary and particle rows consumed by the
// visualiser.
package gpssim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/makometr/gpsviz/internal/simlog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config holds the simulation parameters.
type Config struct {
	Particles int
	Duration  float64 // seconds
	Step      float64 // seconds

	InitPosSD float64 // m
	InitVelSD float64 // m/s
	AccelSD   float64 // m/s/s
	DopplerSD float64

	// Resample when the effective particle count drops below this fraction of Particles.
	ResampleFraction float64

	Seed uint64
}

// DefaultConfig returns the parameters of the reference simulation.
func DefaultConfig() Config {
	return Config{
		Particles:        500,
		Duration:         100,
		Step:             1,
		InitPosSD:        1,
		InitVelSD:        1,
		AccelSD:          0.1,
		DopplerSD:        1e-9,
		ResampleFraction: 0.2,
		Seed:             1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Particles < 1:
		return errors.New("gpssim: need at least one particle")
	case !(c.Step > 0):
		return errors.New("gpssim: step must be positive")
	case !tenthMultiple(c.Step):
		// Timesteps are logged with one decimal; finer steps would share a label.
		return fmt.Errorf("gpssim: step %g is not a multiple of 0.1 s", c.Step)
	case c.Duration < 0:
		return errors.New("gpssim: duration must not be negative")
	case !(c.DopplerSD > 0):
		return errors.New("gpssim: doppler sd must be positive")
	}
	return nil
}

func tenthMultiple(v float64) bool {
	tenths := v * 10
	return math.Abs(tenths-math.Round(tenths)) < 1e-9
}

// EmitFunc receives the summary row and the particle rows of one timestep.
// The particle slice is reused between calls.
type EmitFunc func(summary simlog.SummaryRecord, particles []simlog.ParticleRecord) error

// Run simulates cfg.Duration seconds and calls emit once per timestep.
func Run(cfg Config, emit EmitFunc) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)
	accel := distuv.Normal{Mu: 0, Sigma: cfg.AccelSD, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: cfg.DopplerSD, Src: src}
	likelihood := distuv.Normal{Mu: 0, Sigma: cfg.DopplerSD}

	sat, err := newOrbit(cfg.Step, cfg.Duration/2)
	if err != nil {
		return fmt.Errorf("gpssim: orbit: %w", err)
	}
	fs := newFilterState(cfg.Particles, cfg.InitPosSD, cfg.InitVelSD, src)
	var truth receiver

	n := cfg.Particles
	logLik := make([]float64, n)
	expected := make([]float64, n)
	positions := make([]float64, n)
	velocities := make([]float64, n)
	rows := make([]simlog.ParticleRecord, n)

	steps := int(math.Floor(cfg.Duration/cfg.Step + 1e-9))
	for k := 0; k <= steps; k++ {
		t := float64(k) * cfg.Step
		satPos, satVel := sat.position(), sat.velocity()
		trueMeasurement := doppler(truth, satPos, satVel)
		measurement := trueMeasurement + noise.Rand()

		for i, p := range fs.particles {
			expected[i] = doppler(p, satPos, satVel)
			logLik[i] = likelihood.LogProb(measurement - expected[i])
			positions[i] = p.altitude
			velocities[i] = p.speed
		}
		raw := fs.updateWeights(logLik)
		for i := range rows {
			rows[i] = simlog.ParticleRecord{
				Timestep: t,
				Weight:   raw[i],
				Doppler:  expected[i],
				Position: positions[i],
				Velocity: velocities[i],
			}
		}

		summary := simlog.SummaryRecord{
			Timestep:        t,
			TotalWeight:     floats.Sum(raw),
			TrueDoppler:     trueMeasurement,
			MeasuredDoppler: measurement,
			TruePosition:    truth.altitude,
			TrueVelocity:    truth.speed,
			MeanDoppler:     stat.Mean(expected, raw),
			MeanPosition:    stat.Mean(positions, raw),
			MeanVelocity:    stat.Mean(velocities, raw),
		}
		summary.EffectiveParticles = fs.normalizeWeights()

		if err := emit(summary, rows); err != nil {
			return err
		}

		if summary.EffectiveParticles < float64(n)*cfg.ResampleFraction {
			fs.resample(rng)
		}
		for i := range fs.particles {
			propagate(&fs.particles[i], cfg.Step, accel)
		}
		propagate(&truth, cfg.Step, accel)
		if err := sat.advance(); err != nil {
			return fmt.Errorf("gpssim: orbit at t=%g: %w", t, err)
		}
	}
	return nil
}

// WriteLogs runs the simulation and writes both tables.
func WriteLogs(cfg Config, summary, particles io.Writer) error {
	sw := bufio.NewWriter(summary)
	pw := bufio.NewWriter(particles)

	err := Run(cfg, func(s simlog.SummaryRecord, ps []simlog.ParticleRecord) error {
		for _, p := range ps {
			if err := simlog.WriteParticle(pw, p); err != nil {
				return err
			}
		}
		return simlog.WriteSummary(sw, s)
	})
	if err != nil {
		return err
	}
	if err := pw.Flush(); err != nil {
		return err
	}
	return sw.Flush()
}
