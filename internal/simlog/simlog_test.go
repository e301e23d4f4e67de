package simlog

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const particleSample = ` 0.0	2.000000e-03	-1.234560e-06	0.125000	-0.500000
 0.0	1.000000e-03	-1.234570e-06	-0.250000	0.750000

# comment lines are skipped
 1.0	5.000000e-01	-1.234580e-06	1.000000	2.000000
`

func TestReadParticles(t *testing.T) {
	got, err := ReadParticles(strings.NewReader(particleSample))
	require.NoError(t, err)

	want := []ParticleRecord{
		{Timestep: 0, Weight: 2e-3, Doppler: -1.23456e-6, Position: 0.125, Velocity: -0.5},
		{Timestep: 0, Weight: 1e-3, Doppler: -1.23457e-6, Position: -0.25, Velocity: 0.75},
		{Timestep: 1, Weight: 0.5, Doppler: -1.23458e-6, Position: 1, Velocity: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("particles mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSummary(t *testing.T) {
	in := "12.0 4.500000e-01 87.250000\t1.0e-06 1.1e-06 3.5 0.25\t1.05e-06 3.25 0.5\n"
	got, err := ReadSummary(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, SummaryRecord{
		Timestep:           12,
		TotalWeight:        0.45,
		EffectiveParticles: 87.25,
		TrueDoppler:        1e-6,
		MeasuredDoppler:    1.1e-6,
		TruePosition:       3.5,
		TrueVelocity:       0.25,
		MeanDoppler:        1.05e-6,
		MeanPosition:       3.25,
		MeanVelocity:       0.5,
	}, got[0])
}

func TestReadMalformed(t *testing.T) {
	cases := map[string]struct {
		in   string
		line int
	}{
		"inconsistent columns": {in: "0 1 2 3 4\n0 1 2 3\n", line: 2},
		"too few columns":      {in: "\n0 1 2\n", line: 2},
		"not a number":         {in: "0 1 2 3 4\n1 1 x 3 4\n", line: 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadParticles(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRow)

			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tc.line, rowErr.Line)
		})
	}
}

func TestReadTrailingComments(t *testing.T) {
	in := "# t w d p v\n0 1 2 3 4 # first\n0 2 3 4 5#tight\n   # indented\n"
	got, err := ReadParticles(strings.NewReader(in))
	require.NoError(t, err)
	want := []ParticleRecord{
		{Timestep: 0, Weight: 1, Doppler: 2, Position: 3, Velocity: 4},
		{Timestep: 0, Weight: 2, Doppler: 3, Position: 4, Velocity: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadParticles mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLineTooLong(t *testing.T) {
	in := "0 1 2 3 4\n" + strings.Repeat("1", 2<<20) + "\n"
	_, err := ReadParticles(strings.NewReader(in))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.ErrorIs(t, err, bufio.ErrTooLong)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 2, rowErr.Line)
}

func TestReadSummaryTooNarrow(t *testing.T) {
	_, err := ReadSummary(strings.NewReader("0 1 2 3 4\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestReadEmpty(t *testing.T) {
	got, err := ReadParticles(strings.NewReader("\n# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSummary(filepath.Join(dir, SummaryFile))
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadParticles(filepath.Join(dir, ParticleFile))
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestLoadMalformedNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParticleFile)
	require.NoError(t, os.WriteFile(path, []byte("0 1 2 3 4\n0 1\n"), 0o644))

	_, err := LoadParticles(path)
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteReadBack(t *testing.T) {
	particles := []ParticleRecord{
		{Timestep: 0, Weight: 1.5e-3, Doppler: -2.5e-6, Position: 0.5, Velocity: -0.25},
		{Timestep: 1, Weight: 0.75, Doppler: 3.125e-7, Position: 12.125, Velocity: 1.5},
	}
	summary := SummaryRecord{
		Timestep: 1, TotalWeight: 2.5, EffectiveParticles: 250.5,
		TrueDoppler: 1.25e-6, MeasuredDoppler: 1.5e-6,
		TruePosition: 3.5, TrueVelocity: -0.5,
		MeanDoppler: 1.375e-6, MeanPosition: 3.25, MeanVelocity: -0.375,
	}

	var pbuf, sbuf bytes.Buffer
	for _, p := range particles {
		require.NoError(t, WriteParticle(&pbuf, p))
	}
	require.NoError(t, WriteSummary(&sbuf, summary))

	assert.Equal(t, " 0.0\t1.500000e-03\t-2.500000e-06\t0.500000\t-0.250000\n", strings.SplitAfter(pbuf.String(), "\n")[0])

	gotParticles, err := ReadParticles(&pbuf)
	require.NoError(t, err)
	assert.Equal(t, particles, gotParticles)

	gotSummary, err := ReadSummary(&sbuf)
	require.NoError(t, err)
	assert.Equal(t, []SummaryRecord{summary}, gotSummary)
}

func TestChannels(t *testing.T) {
	p := ParticleRecord{Timestep: 3, Weight: 0.5, Doppler: 1e-6, Position: 2, Velocity: -1}
	assert.Equal(t, 2, Doppler.Column())
	assert.Equal(t, 3, Position.Column())
	assert.Equal(t, 4, Velocity.Column())
	assert.Equal(t, 1e-6, p.Value(Doppler))
	assert.Equal(t, 2.0, p.Value(Position))
	assert.Equal(t, -1.0, p.Value(Velocity))

	for _, c := range Channels {
		parsed, err := ParseChannel(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := ParseChannel("altitude")
	assert.Error(t, err)
}

func TestPoints(t *testing.T) {
	particles := []ParticleRecord{
		{Timestep: 0, Weight: 0.25, Doppler: 1, Position: 2, Velocity: 3},
		{Timestep: 1, Weight: 0.75, Doppler: 4, Position: 5, Velocity: 6},
	}
	pts := Points(particles, Position)
	require.Len(t, pts, 2)
	assert.Equal(t, 0.0, pts[0].Timestep)
	assert.Equal(t, 0.25, pts[0].Weight)
	assert.Equal(t, 2.0, pts[0].Value)
	assert.Equal(t, 5.0, pts[1].Value)
}

func TestSorted(t *testing.T) {
	assert.True(t, Sorted([]ParticleRecord{{Timestep: 0}, {Timestep: 0}, {Timestep: 1}}))
	assert.False(t, Sorted([]ParticleRecord{{Timestep: 1}, {Timestep: 0}}))
	assert.True(t, Sorted(nil))
}
