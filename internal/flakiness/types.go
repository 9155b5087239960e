package flakiness

import "flakelens/internal/ingest"

// Category is the root-cause category assigned to a flaky test.
type Category string

const (
	CategoryThreadSafety          Category = "THREAD_SAFETY"
	CategoryResourceContention    Category = "RESOURCE_CONTENTION"
	CategoryTiming                Category = "TIMING"
	CategoryExternalDependency    Category = "EXTERNAL_DEPENDENCY"
	CategoryEnvironmentDependency Category = "ENVIRONMENT_DEPENDENCY"
	CategoryAssertionSensitivity  Category = "ASSERTION_SENSITIVITY"
	CategoryUnknown               Category = "UNKNOWN"
)

// History is the ordered list of one test's records across runs.
type History struct {
	TestName string             `json:"test_name"`
	Records  []ingest.RunRecord `json:"records"`
}

// Runs returns the number of runs that observed this test.
func (h *History) Runs() int { return len(h.Records) }

// Verdict is the flakiness assessment of one test. Flakiness is defined
// only when the test was observed in at least two runs; a single-run
// test yields Scored=false and a zero Score that must not be read as
// "not flaky".
//
// A test failing for different reasons in different runs still gets a
// single category (the highest-priority one found anywhere); multi-cause
// tests are a known limitation.
type Verdict struct {
	TestName string   `json:"test_name"`
	Scored   bool     `json:"scored"`
	Score    float64  `json:"score"`
	Category Category `json:"category"`
	Runs     int      `json:"runs"`
	Failures int      `json:"failures"`
}
