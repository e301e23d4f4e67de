package simlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrInputNotFound is returned when an input table does not exist.
	ErrInputNotFound = errors.New("simlog: input not found")
	// ErrMalformedRow is returned for unparsable rows or inconsistent column counts.
	ErrMalformedRow = errors.New("simlog: malformed row")
)

// RowError locates a malformed row. It matches ErrMalformedRow with errors.Is.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%v at line %d: %v", ErrMalformedRow, e.Line, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrMalformedRow, e.Err} }

// readTable parses a whitespace-delimited numeric table. Text after '#' is a
// comment and blank lines are skipped. Every row must have as many columns as
// the first one, and at least minCols.
func readTable(r io.Reader, minCols int) ([][]float64, error) {
	var rows [][]float64
	width := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text, _, _ := strings.Cut(scanner.Text(), "#")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if width == 0 {
			if len(fields) < minCols {
				return nil, &RowError{Line: line, Err: fmt.Errorf("got %d columns, need at least %d", len(fields), minCols)}
			}
			width = len(fields)
		} else if len(fields) != width {
			return nil, &RowError{Line: line, Err: fmt.Errorf("got %d columns, previous rows have %d", len(fields), width)}
		}

		row := make([]float64, width)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &RowError{Line: line, Err: err}
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &RowError{Line: line + 1, Err: err}
		}
		return nil, err
	}
	return rows, nil
}

func openTable(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	return f, err
}

// ReadSummary parses a summary log.
func ReadSummary(r io.Reader) ([]SummaryRecord, error) {
	rows, err := readTable(r, summaryColumns)
	if err != nil {
		return nil, err
	}
	records := make([]SummaryRecord, len(rows))
	for i, row := range rows {
		records[i] = SummaryRecord{
			Timestep:           row[0],
			TotalWeight:        row[1],
			EffectiveParticles: row[2],
			TrueDoppler:        row[3],
			MeasuredDoppler:    row[4],
			TruePosition:       row[5],
			TrueVelocity:       row[6],
			MeanDoppler:        row[7],
			MeanPosition:       row[8],
			MeanVelocity:       row[9],
		}
	}
	return records, nil
}

// ReadParticles parses a particle log.
func ReadParticles(r io.Reader) ([]ParticleRecord, error) {
	rows, err := readTable(r, particleColumns)
	if err != nil {
		return nil, err
	}
	records := make([]ParticleRecord, len(rows))
	for i, row := range rows {
		records[i] = ParticleRecord{
			Timestep: row[0],
			Weight:   row[1],
			Doppler:  row[2],
			Position: row[3],
			Velocity: row[4],
		}
	}
	return records, nil
}

// LoadSummary reads the summary log at path.
func LoadSummary(path string) ([]SummaryRecord, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadSummary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadParticles reads the particle log at path.
func LoadParticles(path string) ([]ParticleRecord, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadParticles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
