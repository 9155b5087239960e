package correlate

import (
	"fmt"
	"sort"
	"strings"

	"flakelens/internal/matrix"
)

// Analyze joins execution results to configurations by id and builds
// the per-category impact table, the slowest-configurations ranking,
// and the common failure-pattern list. Results referencing an unknown
// configuration are counted in Report.Unmatched and otherwise skipped.
func Analyze(configs []matrix.Configuration, results []ExecutionResult) *Report {
	byID := map[int]matrix.Configuration{}
	catSet := map[string]bool{}
	for _, c := range configs {
		byID[c.ID] = c
		for _, a := range c.Assignments {
			catSet[a.Category] = true
		}
	}

	type catAgg struct {
		runs      int
		successes int
		duration  float64
		failures  map[string]int // level -> failing runs
	}
	aggs := map[string]*catAgg{}
	for cat := range catSet {
		aggs[cat] = &catAgg{failures: map[string]int{}}
	}

	var slow []SlowConfiguration
	patternCounts := map[string]int{}
	rep := &Report{}

	for _, res := range results {
		cfg, ok := byID[res.ConfigurationID]
		if !ok {
			rep.Unmatched++
			continue
		}

		nb := cfg.NonBaseline()
		for _, a := range nb {
			agg := aggs[a.Category]
			agg.runs++
			agg.duration += res.DurationSeconds
			if res.Passed() {
				agg.successes++
			} else {
				agg.failures[a.Level]++
			}
		}

		slow = append(slow, SlowConfiguration{
			ConfigurationID: res.ConfigurationID,
			DurationSeconds: res.DurationSeconds,
			Levels:          levelTuple(nb),
		})

		if !res.Passed() {
			patternCounts[levelTuple(nb)]++
		}
	}

	cats := make([]string, 0, len(aggs))
	for cat := range aggs {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		agg := aggs[cat]
		stats := CategoryStats{Category: cat, Runs: agg.runs}
		if agg.runs > 0 {
			// Zero occurrences must short-circuit to N/A, never divide.
			stats.RateDefined = true
			stats.SuccessRatePct = 100 * float64(agg.successes) / float64(agg.runs)
			stats.AvgDurationSeconds = agg.duration / float64(agg.runs)
			stats.MostFrequentFailureLevel = topFailureLevel(agg.failures)
		}
		rep.Categories = append(rep.Categories, stats)
	}

	sort.Slice(slow, func(i, j int) bool {
		if slow[i].DurationSeconds != slow[j].DurationSeconds {
			return slow[i].DurationSeconds > slow[j].DurationSeconds
		}
		return slow[i].ConfigurationID < slow[j].ConfigurationID
	})
	rep.Slowest = slow

	patterns := make([]FailurePattern, 0, len(patternCounts))
	for levels, count := range patternCounts {
		patterns = append(patterns, FailurePattern{Levels: levels, Count: count})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Levels < patterns[j].Levels
	})
	rep.FailurePatterns = patterns

	return rep
}

// levelTuple renders the non-baseline assignments of a configuration
// as a stable "cat=level" tuple; the baseline configuration renders as
// "baseline".
func levelTuple(assignments []matrix.Assignment) string {
	if len(assignments) == 0 {
		return "baseline"
	}
	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Category, a.Level))
	}
	return strings.Join(parts, ",")
}

func topFailureLevel(failures map[string]int) string {
	best, bestCount := "", 0
	levels := make([]string, 0, len(failures))
	for l := range failures {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	for _, l := range levels {
		if failures[l] > bestCount {
			best, bestCount = l, failures[l]
		}
	}
	return best
}
