package correlate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"flakelens/internal/matrix"
)

func cfg(id int, assignments ...matrix.Assignment) matrix.Configuration {
	return matrix.Configuration{ID: id, Assignments: assignments}
}

func asn(cat, level string) matrix.Assignment {
	return matrix.Assignment{Category: cat, Level: level}
}

func TestAnalyze_CategoryStats(t *testing.T) {
	configs := []matrix.Configuration{
		cfg(1, asn("memory", "none"), asn("parallelism", "none")),
		cfg(2, asn("memory", "constrained"), asn("parallelism", "high")),
		cfg(3, asn("memory", "constrained"), asn("parallelism", "none")),
	}
	results := []ExecutionResult{
		{ConfigurationID: 1, ExitStatus: 0, DurationSeconds: 10},
		{ConfigurationID: 2, ExitStatus: 1, DurationSeconds: 30},
		{ConfigurationID: 3, ExitStatus: 0, DurationSeconds: 20},
	}
	rep := Analyze(configs, results)

	if len(rep.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(rep.Categories))
	}
	mem := rep.Categories[0]
	if mem.Category != "memory" {
		t.Fatalf("categories not sorted: first is %s", mem.Category)
	}
	if mem.Runs != 2 || !mem.RateDefined {
		t.Errorf("memory stats = %+v, want 2 defined runs", mem)
	}
	if mem.SuccessRatePct != 50 {
		t.Errorf("memory success rate = %v, want 50", mem.SuccessRatePct)
	}
	if mem.AvgDurationSeconds != 25 {
		t.Errorf("memory avg duration = %v, want 25", mem.AvgDurationSeconds)
	}
	if mem.MostFrequentFailureLevel != "constrained" {
		t.Errorf("memory failure level = %q, want constrained", mem.MostFrequentFailureLevel)
	}
}

func TestAnalyze_ZeroOccurrencesIsNA(t *testing.T) {
	// The network category never appears at a non-baseline level; its
	// rate must be undefined rather than 100% or 0%.
	configs := []matrix.Configuration{
		cfg(1, asn("memory", "none"), asn("network", "none")),
		cfg(2, asn("memory", "constrained"), asn("network", "none")),
	}
	results := []ExecutionResult{
		{ConfigurationID: 1, ExitStatus: 0, DurationSeconds: 5},
		{ConfigurationID: 2, ExitStatus: 1, DurationSeconds: 5},
	}
	rep := Analyze(configs, results)
	for _, stats := range rep.Categories {
		if stats.Category == "network" {
			if stats.RateDefined {
				t.Errorf("network rate defined with zero occurrences: %+v", stats)
			}
			if stats.Runs != 0 {
				t.Errorf("network runs = %d, want 0", stats.Runs)
			}
			return
		}
	}
	t.Fatal("network category missing from report")
}

func TestAnalyze_UnmatchedResultsCounted(t *testing.T) {
	configs := []matrix.Configuration{cfg(1, asn("memory", "none"))}
	results := []ExecutionResult{
		{ConfigurationID: 1, ExitStatus: 0},
		{ConfigurationID: 99, ExitStatus: 1},
	}
	rep := Analyze(configs, results)
	if rep.Unmatched != 1 {
		t.Errorf("unmatched = %d, want 1", rep.Unmatched)
	}
	if len(rep.FailurePatterns) != 0 {
		t.Errorf("unmatched failure leaked into patterns: %v", rep.FailurePatterns)
	}
}

func TestAnalyze_SlowestRanking(t *testing.T) {
	configs := []matrix.Configuration{
		cfg(1, asn("memory", "none")),
		cfg(2, asn("memory", "constrained")),
		cfg(3, asn("memory", "huge")),
	}
	results := []ExecutionResult{
		{ConfigurationID: 1, ExitStatus: 0, DurationSeconds: 8},
		{ConfigurationID: 2, ExitStatus: 0, DurationSeconds: 42},
		{ConfigurationID: 3, ExitStatus: 0, DurationSeconds: 42},
	}
	rep := Analyze(configs, results)
	want := []SlowConfiguration{
		{ConfigurationID: 2, DurationSeconds: 42, Levels: "memory=constrained"},
		{ConfigurationID: 3, DurationSeconds: 42, Levels: "memory=huge"},
		{ConfigurationID: 1, DurationSeconds: 8, Levels: "baseline"},
	}
	if diff := cmp.Diff(want, rep.Slowest); diff != "" {
		t.Errorf("slowest ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_FailurePatterns(t *testing.T) {
	configs := []matrix.Configuration{
		cfg(2, asn("memory", "constrained"), asn("parallelism", "high")),
		cfg(3, asn("memory", "constrained"), asn("parallelism", "none")),
	}
	results := []ExecutionResult{
		{ConfigurationID: 2, ExitStatus: 1},
		{ConfigurationID: 2, ExitStatus: 137},
		{ConfigurationID: 3, ExitStatus: 1},
	}
	rep := Analyze(configs, results)
	want := []FailurePattern{
		{Levels: "memory=constrained,parallelism=high", Count: 2},
		{Levels: "memory=constrained", Count: 1},
	}
	if diff := cmp.Diff(want, rep.FailurePatterns); diff != "" {
		t.Errorf("failure patterns mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_EmptyResults(t *testing.T) {
	configs := []matrix.Configuration{cfg(1, asn("memory", "none"))}
	rep := Analyze(configs, nil)
	if len(rep.Slowest) != 0 || len(rep.FailurePatterns) != 0 {
		t.Errorf("empty results produced rankings: %+v", rep)
	}
	if len(rep.Categories) != 1 || rep.Categories[0].RateDefined {
		t.Errorf("categories = %+v, want one undefined row", rep.Categories)
	}
}
