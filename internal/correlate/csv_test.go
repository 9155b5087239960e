package correlate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"flakelens/internal/matrix"
)

const resultsCSV = `TestID,memory,parallelism,Status,Duration,Notes
1,none,none,0,12.5,
2,constrained,high,1,48.0,oom killed
3,constrained,none,PASS,20,
`

func TestReadResultsCSV(t *testing.T) {
	configs, results, err := ReadResultsCSV(strings.NewReader(resultsCSV))
	if err != nil {
		t.Fatalf("ReadResultsCSV: %v", err)
	}
	wantConfigs := []matrix.Configuration{
		{ID: 1, Assignments: []matrix.Assignment{
			{Category: "memory", Level: "none"},
			{Category: "parallelism", Level: "none"},
		}},
		{ID: 2, Assignments: []matrix.Assignment{
			{Category: "memory", Level: "constrained"},
			{Category: "parallelism", Level: "high"},
		}},
		{ID: 3, Assignments: []matrix.Assignment{
			{Category: "memory", Level: "constrained"},
			{Category: "parallelism", Level: "none"},
		}},
	}
	if diff := cmp.Diff(wantConfigs, configs); diff != "" {
		t.Errorf("configurations mismatch (-want +got):\n%s", diff)
	}
	wantResults := []ExecutionResult{
		{ConfigurationID: 1, ExitStatus: 0, DurationSeconds: 12.5},
		{ConfigurationID: 2, ExitStatus: 1, DurationSeconds: 48, Notes: "oom killed"},
		{ConfigurationID: 3, ExitStatus: 0, DurationSeconds: 20},
	}
	if diff := cmp.Diff(wantResults, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResultsCSV_CoercesAnomalies(t *testing.T) {
	data := "TestID,memory,Status,Duration,Notes\n1,none,garbled,not-a-number,\n"
	_, results, err := ReadResultsCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadResultsCSV: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ExitStatus != 1 {
		t.Errorf("garbled status = %d, want coerced failure 1", results[0].ExitStatus)
	}
	if results[0].DurationSeconds != 0 {
		t.Errorf("bad duration = %v, want coerced 0", results[0].DurationSeconds)
	}
}

func TestReadResultsCSV_RejectsBadHeader(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing result columns", "TestID,memory\n1,none\n"},
		{"wrong first column", "ID,memory,Status,Duration,Notes\n"},
		{"reordered tail", "TestID,memory,Duration,Status,Notes\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := ReadResultsCSV(strings.NewReader(tc.data)); err == nil {
				t.Error("expected header error")
			}
		})
	}
}

func TestReadResultsCSV_RejectsNonNumericID(t *testing.T) {
	data := "TestID,memory,Status,Duration,Notes\nxyz,none,0,1.0,\n"
	if _, _, err := ReadResultsCSV(strings.NewReader(data)); err == nil {
		t.Error("expected error for non-numeric TestID")
	}
}

func TestParseStatus_Synonyms(t *testing.T) {
	cases := map[string]int{
		"0": 0, "1": 1, "137": 137,
		"PASS": 0, "passed": 0, "OK": 0, "Success": 0,
		"FAIL": 1, "failed": 1, "ERROR": 1,
	}
	logger := discardLogger{}
	for in, want := range cases {
		if got := parseStatus(in, 0, logger); got != want {
			t.Errorf("parseStatus(%q) = %d, want %d", in, got, want)
		}
	}
}

type discardLogger struct{}

func (discardLogger) Warn(string, ...any) {}
