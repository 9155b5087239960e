package flakiness

import (
	"sort"
	"strings"

	"flakelens/internal/ingest"
)

// BuildHistories groups per-run records by test name, preserving run
// order. Runs are assumed to be in their ingestion order.
func BuildHistories(runs []*ingest.Run) []*History {
	byName := map[string]*History{}
	var order []string
	for _, run := range runs {
		for _, rec := range run.Records {
			h, ok := byName[rec.TestName]
			if !ok {
				h = &History{TestName: rec.TestName}
				byName[rec.TestName] = h
				order = append(order, rec.TestName)
			}
			h.Records = append(h.Records, rec)
		}
	}
	histories := make([]*History, 0, len(order))
	for _, name := range order {
		histories = append(histories, byName[name])
	}
	return histories
}

// Result splits verdicts into the scored list and the tests that were
// seen in fewer than two runs (insufficient data, never scored).
type Result struct {
	Verdicts     []Verdict `json:"verdicts"`
	Insufficient []Verdict `json:"insufficient"`
}

// Aggregate scores every history with at least two runs and sorts the
// verdicts by score descending, test name ascending on ties, so the
// same input always renders the same report.
func Aggregate(histories []*History) *Result {
	res := &Result{}
	for _, h := range histories {
		v := verdict(h)
		if !v.Scored {
			res.Insufficient = append(res.Insufficient, v)
			continue
		}
		res.Verdicts = append(res.Verdicts, v)
	}
	sort.Slice(res.Verdicts, func(i, j int) bool {
		a, b := res.Verdicts[i], res.Verdicts[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.TestName < b.TestName
	})
	sort.Slice(res.Insufficient, func(i, j int) bool {
		return res.Insufficient[i].TestName < res.Insufficient[j].TestName
	})
	return res
}

func verdict(h *History) Verdict {
	v := Verdict{
		TestName: h.TestName,
		Runs:     h.Runs(),
		Category: CategoryUnknown,
	}

	var evidence []string
	counts := map[ingest.Outcome]int{}
	for _, rec := range h.Records {
		counts[rec.Outcome]++
		if rec.Outcome == ingest.OutcomeFail || rec.Outcome == ingest.OutcomeError {
			v.Failures++
			if rec.ErrorSignature != "" {
				evidence = append(evidence, rec.ErrorSignature)
			}
		}
	}
	if v.Failures > 0 {
		v.Category = Classify(strings.Join(evidence, "\n"))
	}

	if h.Runs() < 2 {
		return v
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	v.Scored = true
	v.Score = 1 - float64(max)/float64(h.Runs())
	return v
}
