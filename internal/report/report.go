// Package report merges the four analyses into the documents that are
// diffed across investigation sessions: Markdown by default, JSON on
// request. Rendering is deterministic — identical inputs produce
// byte-identical output.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"flakelens/internal/correlate"
	"flakelens/internal/flakiness"
	"flakelens/internal/format"
	"flakelens/internal/threaddump"
)

// Report is the composed analysis document. Contention and Correlation
// are optional; their sections degrade to an explicit "not available"
// note rather than disappearing silently.
type Report struct {
	Investigation   string               `json:"investigation,omitempty"`
	Flakiness       *flakiness.Result    `json:"flakiness,omitempty"`
	Contention      *threaddump.Analysis `json:"contention,omitempty"`
	Correlation     *correlate.Report    `json:"correlation,omitempty"`
	Recommendations []string             `json:"recommendations"`
}

// Compose assembles a report and derives recommendations from the
// evidence found.
func Compose(investigation string, fl *flakiness.Result, td *threaddump.Analysis, corr *correlate.Report) *Report {
	return &Report{
		Investigation:   investigation,
		Flakiness:       fl,
		Contention:      td,
		Correlation:     corr,
		Recommendations: recommendations(fl, td),
	}
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Markdown renders the report document.
func (r *Report) Markdown() string {
	var b strings.Builder
	title := "Flaky Test Investigation"
	if r.Investigation != "" {
		title += ": " + r.Investigation
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	r.writeFlakiness(&b)
	r.writeContention(&b)
	r.writeCorrelation(&b)
	r.writeRecommendations(&b)

	return b.String()
}

func (r *Report) writeFlakiness(b *strings.Builder) {
	b.WriteString("## Flakiness Summary\n\n")
	if r.Flakiness == nil || (len(r.Flakiness.Verdicts) == 0 && len(r.Flakiness.Insufficient) == 0) {
		b.WriteString("No test run data available.\n\n")
		return
	}

	if len(r.Flakiness.Verdicts) > 0 {
		t := format.NewTable(format.Markdown)
		t.Header("Test", "Score", "Category", "Runs", "Failures")
		for _, v := range r.Flakiness.Verdicts {
			t.Row(v.TestName, format.FmtScore(v.Score), string(v.Category), v.Runs, v.Failures)
		}
		t.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
		b.WriteString(t.String())
		b.WriteString("\n\n")
	}

	if len(r.Flakiness.Insufficient) > 0 {
		b.WriteString("Insufficient data (seen in fewer than 2 runs, not scored):\n\n")
		for _, v := range r.Flakiness.Insufficient {
			fmt.Fprintf(b, "- %s (%d run)\n", v.TestName, v.Runs)
		}
		b.WriteString("\n")
	}
}

func (r *Report) writeContention(b *strings.Builder) {
	b.WriteString("## Thread Contention\n\n")
	if r.Contention == nil {
		b.WriteString("No thread dump available.\n\n")
		return
	}

	if len(r.Contention.Cycles) == 0 {
		b.WriteString("No deadlocks detected.\n\n")
	} else {
		fmt.Fprintf(b, "%d deadlock cycle(s) detected:\n\n", len(r.Contention.Cycles))
		for _, cycle := range r.Contention.Cycles {
			fmt.Fprintf(b, "- %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
		b.WriteString("\n")
	}

	if len(r.Contention.Hubs) > 0 {
		t := format.NewTable(format.Markdown)
		t.Header("Lock", "Waiting Threads")
		for _, h := range r.Contention.Hubs {
			t.Row(h.Lock, len(h.Waiters))
		}
		b.WriteString(t.String())
		b.WriteString("\n\n")
	}

	states := make([]string, 0, len(r.Contention.StateCounts))
	for s := range r.Contention.StateCounts {
		states = append(states, string(s))
	}
	sort.Strings(states)
	var parts []string
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", s, r.Contention.StateCounts[threaddump.State(s)]))
	}
	fmt.Fprintf(b, "Threads by state: %s\n\n", strings.Join(parts, ", "))
}

func (r *Report) writeCorrelation(b *strings.Builder) {
	b.WriteString("## Factor Correlation\n\n")
	if r.Correlation == nil {
		b.WriteString("No execution results available.\n\n")
		return
	}

	t := format.NewTable(format.Markdown)
	t.Header("Category", "Runs", "Success Rate", "Avg Duration", "Worst Level")
	for _, c := range r.Correlation.Categories {
		rate := "N/A"
		avg := "N/A"
		if c.RateDefined {
			rate = format.FmtPercent(c.SuccessRatePct)
			avg = format.FmtSeconds(c.AvgDurationSeconds)
		}
		t.Row(c.Category, c.Runs, rate, avg, c.MostFrequentFailureLevel)
	}
	b.WriteString(t.String())
	b.WriteString("\n\n")

	if len(r.Correlation.Slowest) > 0 {
		b.WriteString("Slowest configurations:\n\n")
		limit := len(r.Correlation.Slowest)
		if limit > 5 {
			limit = 5
		}
		for _, s := range r.Correlation.Slowest[:limit] {
			fmt.Fprintf(b, "- #%d %s (%s)\n", s.ConfigurationID, s.Levels, format.FmtSeconds(s.DurationSeconds))
		}
		b.WriteString("\n")
	}

	if len(r.Correlation.FailurePatterns) > 0 {
		b.WriteString("Most common failure patterns:\n\n")
		for _, p := range r.Correlation.FailurePatterns {
			fmt.Fprintf(b, "- %s (%d failures)\n", p.Levels, p.Count)
		}
		b.WriteString("\n")
	}
}

func (r *Report) writeRecommendations(b *strings.Builder) {
	b.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("No specific recommendations; evidence was inconclusive.\n")
		return
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(b, "- %s\n", rec)
	}
}

// adviceByCategory is the literal recommendation table; one entry per
// root-cause category that has a concrete next step.
var adviceByCategory = map[flakiness.Category]string{
	flakiness.CategoryThreadSafety:          "Audit shared state in the affected tests; run them serially to confirm, then add synchronization or isolate fixtures.",
	flakiness.CategoryResourceContention:    "Check pool sizes, file handle limits, and memory headroom on the CI executor; stagger resource-heavy suites.",
	flakiness.CategoryTiming:                "Replace fixed sleeps with condition polling and raise timeouts that sit close to observed durations.",
	flakiness.CategoryExternalDependency:    "Stub or containerize the external services these tests call; network flakiness should not fail the suite.",
	flakiness.CategoryEnvironmentDependency: "Pin the environment variables and system properties the tests read; document required configuration.",
	flakiness.CategoryAssertionSensitivity:  "Loosen assertions on ordering, timestamps, and floating point; compare semantic results instead of formatted output.",
}

func recommendations(fl *flakiness.Result, td *threaddump.Analysis) []string {
	var recs []string
	if fl != nil {
		seen := map[flakiness.Category]bool{}
		for _, v := range fl.Verdicts {
			if v.Score == 0 || seen[v.Category] {
				continue
			}
			seen[v.Category] = true
			if advice, ok := adviceByCategory[v.Category]; ok {
				recs = append(recs, advice)
			}
		}
	}
	if td != nil && len(td.Cycles) > 0 {
		recs = append(recs, "Deadlock cycles were found in the thread dump; inspect the lock acquisition order of the threads listed in the contention section.")
	}
	return recs
}
