package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/makometr/gpsviz/internal/figures"
	"github.com/makometr/gpsviz/internal/kde"
	"github.com/makometr/gpsviz/internal/simlog"
	"golang.org/x/sync/errgroup"
)

type options struct {
	summaryPath  string
	particlePath string
	outDir       string
	bins         int
	velocityBW   float64
	positionBW   float64
	dopplerBW    float64
	essRef       float64
	htmlName     string
	png          bool
	animate      string
	fps          int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("gpsviz", flag.ContinueOnError)
	fs.StringVar(&o.summaryPath, "summary", simlog.SummaryFile, "summary log path")
	fs.StringVar(&o.particlePath, "particles", simlog.ParticleFile, "particle log path")
	fs.StringVar(&o.outDir, "out", ".", "output directory")
	fs.IntVar(&o.bins, "bins", kde.DefaultBins, "density evaluation points per timestep")
	fs.Float64Var(&o.velocityBW, "velocity-bw", 0.25, "velocity kernel bandwidth (m/s)")
	fs.Float64Var(&o.positionBW, "position-bw", 0.25, "position kernel bandwidth (m)")
	fs.Float64Var(&o.dopplerBW, "doppler-bw", 1.5e-9, "Doppler kernel bandwidth")
	fs.Float64Var(&o.essRef, "ess-ref", figures.DefaultReference, "reference line on the effective particle figure")
	fs.StringVar(&o.htmlName, "html", "gpsviz.html", "interactive report file name (empty to disable)")
	fs.BoolVar(&o.png, "png", true, "write PNG figures")
	fs.StringVar(&o.animate, "animate", "", "write a per-timestep density AVI for this channel (velocity, position or doppler)")
	fs.IntVar(&o.fps, "fps", 4, "animation frame rate")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.animate != "" {
		if _, err := simlog.ParseChannel(o.animate); err != nil {
			return o, err
		}
	}
	return o, nil
}

// specs returns the density figures with bandwidths taken from the flags.
func (o options) specs() []figures.Spec {
	specs := figures.DefaultSpecs()
	for i := range specs {
		switch specs[i].Channel {
		case simlog.Velocity:
			specs[i].Bandwidth = o.velocityBW
		case simlog.Position:
			specs[i].Bandwidth = o.positionBW
		case simlog.Doppler:
			specs[i].Bandwidth = o.dopplerBW
		}
	}
	return specs
}

type tables struct {
	summary   []simlog.SummaryRecord
	particles []simlog.ParticleRecord
}

func loadTables(o options) (*tables, error) {
	summary, err := simlog.LoadSummary(o.summaryPath)
	if err != nil {
		return nil, err
	}
	if len(summary) == 0 {
		return nil, fmt.Errorf("%s: %w", o.summaryPath, kde.ErrEmptyTable)
	}
	particles, err := simlog.LoadParticles(o.particlePath)
	if err != nil {
		return nil, err
	}
	if len(particles) == 0 {
		return nil, fmt.Errorf("%s: %w", o.particlePath, kde.ErrEmptyTable)
	}
	if !simlog.Sorted(particles) {
		log.Printf("Warning: %s is not sorted by timestep, groups will be split", o.particlePath)
	}
	log.Printf("Loaded %d summary rows and %d particle rows", len(summary), len(particles))
	return &tables{summary: summary, particles: particles}, nil
}

// renderAllChannels evaluates every density grid concurrently. Panels keep
// the order of specs.
func renderAllChannels(t *tables, specs []figures.Spec, bins int) ([]figures.DensityPanel, error) {
	panels := make([]figures.DensityPanel, len(specs))
	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			grid, err := kde.Render(simlog.Points(t.particles, spec.Channel), spec.Bandwidth, kde.WithBins(bins))
			if err != nil {
				return fmt.Errorf("%s: %w", spec.Name, err)
			}
			panels[i] = figures.DensityPanel{Spec: spec, Grid: grid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range panels {
		_, cols := p.Grid.Dims()
		if cols != len(t.summary) {
			log.Printf("Warning: %s has %d timestep groups but the summary has %d rows", p.Spec.Name, cols, len(t.summary))
		}
	}
	return panels, nil
}

func display(o options, t *tables, panels []figures.DensityPanel) error {
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if o.png {
		for _, panel := range panels {
			p, err := figures.DensityPlot(panel.Spec, panel.Grid, t.summary)
			if err != nil {
				return err
			}
			path, err := figures.SavePNG(p, o.outDir, panel.Spec.Name)
			if err != nil {
				return err
			}
			log.Printf("Wrote %s", path)
		}
		p, err := figures.EffectivePlot(t.summary, o.essRef)
		if err != nil {
			return err
		}
		path, err := figures.SavePNG(p, o.outDir, "effective")
		if err != nil {
			return err
		}
		log.Printf("Wrote %s", path)
	}

	if o.htmlName != "" {
		path := filepath.Join(o.outDir, o.htmlName)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := figures.WriteHTML(f, panels, t.summary, o.essRef); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("Wrote %s", path)
	}

	if o.animate != "" {
		for _, panel := range panels {
			if panel.Spec.Channel.String() != o.animate {
				continue
			}
			path := filepath.Join(o.outDir, panel.Spec.Name+".avi")
			if err := figures.WriteAnimation(path, panel.Spec, panel.Grid, t.summary, o.fps); err != nil {
				return err
			}
			log.Printf("Wrote %s", path)
		}
	}
	return nil
}

func run(args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	t, err := loadTables(o)
	if err != nil {
		return err
	}
	panels, err := renderAllChannels(t, o.specs(), o.bins)
	if err != nil {
		return err
	}
	return display(o, t, panels)
}

func main() {
	start := time.Now()

	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("gpsviz: %v", err)
	}

	elapsed := time.Since(start)
	log.Printf("Done in %s", elapsed)
}
