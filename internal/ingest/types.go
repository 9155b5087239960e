package ingest

import "errors"

// Outcome is the result of a single test in a single run.
type Outcome string

const (
	OutcomePass  Outcome = "PASS"
	OutcomeFail  Outcome = "FAIL"
	OutcomeError Outcome = "ERROR"
	OutcomeSkip  Outcome = "SKIP"
)

// RunRecord is one test's outcome in one run. Unique per (RunID, TestName).
type RunRecord struct {
	RunID          string  `json:"run_id"`
	TestName       string  `json:"test_name"`
	Outcome        Outcome `json:"outcome"`
	DurationMs     int64   `json:"duration_ms"`
	ErrorSignature string  `json:"error_signature,omitempty"`
}

// BuildStatus is the final build marker found in a run log, if any.
type BuildStatus string

const (
	BuildSuccess BuildStatus = "SUCCESS"
	BuildFailure BuildStatus = "FAILURE"
	BuildUnknown BuildStatus = "UNKNOWN"
)

// Run is the structured form of one execution log.
type Run struct {
	ID      string      `json:"id"`
	Records []RunRecord `json:"records"`
	Build   BuildStatus `json:"build"`

	// SummaryMismatch is set when per-class summary counts disagree with
	// the per-test failure blocks actually found. Per-test evidence wins.
	SummaryMismatch bool `json:"summary_mismatch,omitempty"`
}

// ErrNoRunData signals a log or directory that parsed cleanly but
// produced zero test records. Callers that require data should treat it
// as fatal; the Run returned alongside it is still valid (and empty).
var ErrNoRunData = errors.New("no test run data found")

// ErrMissingInput signals an absent required file or directory.
var ErrMissingInput = errors.New("missing input")
