package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/makometr/gpsviz/internal/gpssim"
	"github.com/makometr/gpsviz/internal/simlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() gpssim.Config {
	cfg := gpssim.DefaultConfig()
	cfg.Particles = 20
	cfg.Duration = 5
	return cfg
}

func TestWriteLogs(t *testing.T) {
	dir := t.TempDir()
	sp := filepath.Join(dir, simlog.SummaryFile)
	pp := filepath.Join(dir, simlog.ParticleFile)
	require.NoError(t, writeLogs(testConfig(), sp, pp))

	summary, err := simlog.LoadSummary(sp)
	require.NoError(t, err)
	assert.Len(t, summary, 6)

	particles, err := simlog.LoadParticles(pp)
	require.NoError(t, err)
	assert.Len(t, particles, 6*20)
}

func TestWriteLogsErrors(t *testing.T) {
	dir := t.TempDir()
	sp := filepath.Join(dir, simlog.SummaryFile)

	err := writeLogs(testConfig(), sp, filepath.Join(dir, "missing", simlog.ParticleFile))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := testConfig()
	bad.Step = 0.05
	err = writeLogs(bad, sp, filepath.Join(dir, simlog.ParticleFile))
	assert.Error(t, err)
}
