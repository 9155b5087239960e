package correlate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flakelens/internal/logging"
	"flakelens/internal/matrix"
)

// resultColumns are appended to the matrix header in a results CSV.
var resultColumns = []string{"Status", "Duration", "Notes"}

// ReadResultsCSV parses an executed-results CSV: the matrix columns
// (TestID plus one column per category) followed by Status, Duration,
// Notes. It returns both the configurations reconstructed from the
// level columns and the execution results, already joined by row.
//
// Per-row anomalies (an unparsable status or duration) are coerced and
// noted, never fatal: an unrecognized status counts as a failure with
// exit status 1, a bad duration as 0 seconds.
func ReadResultsCSV(r io.Reader) ([]matrix.Configuration, []ExecutionResult, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read results header: %w", err)
	}
	if len(header) < 1+len(resultColumns) || header[0] != "TestID" {
		return nil, nil, fmt.Errorf("results header must be TestID,<categories>,Status,Duration,Notes; got %v", header)
	}
	tail := header[len(header)-len(resultColumns):]
	for i, want := range resultColumns {
		if tail[i] != want {
			return nil, nil, fmt.Errorf("results header column %q, want %q", tail[i], want)
		}
	}
	cats := header[1 : len(header)-len(resultColumns)]

	logger := logging.New("correlate")
	var configs []matrix.Configuration
	var results []ExecutionResult
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read results row %d: %w", line, err)
		}
		if len(row) != len(header) {
			return nil, nil, fmt.Errorf("results row %d has %d fields, want %d", line, len(row), len(header))
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, nil, fmt.Errorf("results row %d has non-numeric TestID %q", line, row[0])
		}

		cfg := matrix.Configuration{ID: id}
		for i, cat := range cats {
			cfg.Assignments = append(cfg.Assignments, matrix.Assignment{
				Category: cat,
				Level:    matrix.NewLevel(row[i+1]).Name(),
			})
		}
		configs = append(configs, cfg)

		statusField := row[len(row)-3]
		durField := row[len(row)-2]
		res := ExecutionResult{
			ConfigurationID: id,
			ExitStatus:      parseStatus(statusField, line, logger),
			Notes:           row[len(row)-1],
		}
		if d, err := strconv.ParseFloat(durField, 64); err == nil {
			res.DurationSeconds = d
		} else if durField != "" {
			logger.Warn("unparsable duration coerced to 0", "row", line, "value", durField)
		}
		results = append(results, res)
	}
	return configs, results, nil
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// parseStatus accepts the exit status verbatim; the textual synonyms
// some executors emit map onto the 0/nonzero convention.
func parseStatus(s string, line int, logger warnLogger) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS", "PASSED", "OK", "SUCCESS":
		return 0
	case "FAIL", "FAILED", "ERROR":
		return 1
	}
	logger.Warn("unrecognized status coerced to failure", "row", line, "value", s)
	return 1
}
