package simlog

import (
	"fmt"
	"io"
)

// WriteParticle appends one particle row in the simulator's format.
func WriteParticle(w io.Writer, p ParticleRecord) error {
	_, err := fmt.Fprintf(w, "%4.1f\t%e\t%e\t%f\t%f\n",
		p.Timestep, p.Weight, p.Doppler, p.Position, p.Velocity)
	return err
}

// WriteSummary appends one summary row in the simulator's format.
func WriteSummary(w io.Writer, s SummaryRecord) error {
	_, err := fmt.Fprintf(w, "%4.1f %e %f\t%e %e %f %f\t%e %f %f\n",
		s.Timestep, s.TotalWeight, s.EffectiveParticles,
		s.TrueDoppler, s.MeasuredDoppler,
		s.TruePosition, s.TrueVelocity,
		s.MeanDoppler, s.MeanPosition, s.MeanVelocity)
	return err
}
