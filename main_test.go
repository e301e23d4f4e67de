package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/makometr/gpsviz/internal/gpssim"
	"github.com/makometr/gpsviz/internal/kde"
	"github.com/makometr/gpsviz/internal/simlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogs(t *testing.T, dir string) (string, string) {
	t.Helper()
	cfg := gpssim.DefaultConfig()
	cfg.Particles = 40
	cfg.Duration = 8

	var summary, particles bytes.Buffer
	require.NoError(t, gpssim.WriteLogs(cfg, &summary, &particles))

	sp := filepath.Join(dir, simlog.SummaryFile)
	pp := filepath.Join(dir, simlog.ParticleFile)
	require.NoError(t, os.WriteFile(sp, summary.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(pp, particles.Bytes(), 0o644))
	return sp, pp
}

func TestParseFlagsDefaults(t *testing.T) {
	o, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "summary_log.txt", o.summaryPath)
	assert.Equal(t, "particle_log.txt", o.particlePath)
	assert.Equal(t, 500, o.bins)
	assert.Equal(t, 100.0, o.essRef)

	specs := o.specs()
	require.Len(t, specs, 3)
	assert.Equal(t, 0.25, specs[0].Bandwidth)
	assert.Equal(t, 0.25, specs[1].Bandwidth)
	assert.Equal(t, 1.5e-9, specs[2].Bandwidth)
}

func TestParseFlagsOverrides(t *testing.T) {
	o, err := parseFlags([]string{"-doppler-bw", "2e-9", "-animate", "velocity", "-bins", "64"})
	require.NoError(t, err)
	assert.Equal(t, 2e-9, o.specs()[2].Bandwidth)
	assert.Equal(t, "velocity", o.animate)
	assert.Equal(t, 64, o.bins)

	_, err = parseFlags([]string{"-animate", "altitude"})
	assert.Error(t, err)
}

func TestRunWritesFigures(t *testing.T) {
	dir := t.TempDir()
	sp, pp := writeLogs(t, dir)
	out := filepath.Join(dir, "figures")

	err := run([]string{"-summary", sp, "-particles", pp, "-out", out, "-bins", "80", "-animate", "position"})
	require.NoError(t, err)

	for _, name := range []string{"velocity.png", "position.png", "doppler.png", "effective.png", "gpsviz.html", "position.avi"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestRenderAllChannels(t *testing.T) {
	dir := t.TempDir()
	sp, pp := writeLogs(t, dir)
	o, err := parseFlags([]string{"-summary", sp, "-particles", pp, "-bins", "30"})
	require.NoError(t, err)

	tb, err := loadTables(o)
	require.NoError(t, err)
	panels, err := renderAllChannels(tb, o.specs(), o.bins)
	require.NoError(t, err)
	require.Len(t, panels, 3)
	for i, p := range panels {
		assert.Equal(t, o.specs()[i].Name, p.Spec.Name)
		rows, cols := p.Grid.Dims()
		assert.Equal(t, 30, rows)
		assert.Equal(t, len(tb.summary), cols)
	}
}

func TestRunFailsFast(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{"-summary", filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, simlog.ErrInputNotFound)

	sp := filepath.Join(dir, simlog.SummaryFile)
	pp := filepath.Join(dir, simlog.ParticleFile)
	require.NoError(t, os.WriteFile(sp, []byte("0 1 100 0 0 0 0 0 0 0\n1 1 100 0 0 0 0 0 0 0\n"), 0o644))
	require.NoError(t, os.WriteFile(pp, []byte("0 1 0 0 0\n1 0 0 1 1\n"), 0o644))
	out := filepath.Join(dir, "out")

	err = run([]string{"-summary", sp, "-particles", pp, "-out", out})
	assert.ErrorIs(t, err, kde.ErrEmptyGroup)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no figures should be written")

	require.NoError(t, os.WriteFile(pp, nil, 0o644))
	err = run([]string{"-summary", sp, "-particles", pp, "-out", out})
	assert.ErrorIs(t, err, kde.ErrEmptyTable)
}
