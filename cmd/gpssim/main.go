// Command gpssim runs the Doppler particle filter simulation and writes the
// summary and particle logs read by gpsviz.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/makometr/gpsviz/internal/gpssim"
	"github.com/makometr/gpsviz/internal/simlog"
)

func main() {
	cfg := gpssim.DefaultConfig()

	summaryPath := flag.String("summary", simlog.SummaryFile, "summary log output path")
	particlePath := flag.String("particles", simlog.ParticleFile, "particle log output path")
	flag.IntVar(&cfg.Particles, "n", cfg.Particles, "number of particles")
	flag.Float64Var(&cfg.Duration, "duration", cfg.Duration, "seconds to simulate")
	flag.Float64Var(&cfg.Step, "step", cfg.Step, "timestep in seconds")
	flag.Float64Var(&cfg.DopplerSD, "doppler-sd", cfg.DopplerSD, "Doppler measurement noise")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.Parse()

	start := time.Now()
	if err := writeLogs(cfg, *summaryPath, *particlePath); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	log.Printf("Simulated %gs with %d particles in %s", cfg.Duration, cfg.Particles, time.Since(start))
}

// writeLogs runs the simulation into the two log files. The first Close
// error is returned when the simulation itself succeeded.
func writeLogs(cfg gpssim.Config, summaryPath, particlePath string) (err error) {
	summary, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("create summary log: %w", err)
	}
	defer closeFile(summary, &err)

	particles, err := os.Create(particlePath)
	if err != nil {
		return fmt.Errorf("create particle log: %w", err)
	}
	defer closeFile(particles, &err)

	return gpssim.WriteLogs(cfg, summary, particles)
}

func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", f.Name(), cerr)
	}
}
