package correlate

// ExecutionResult is the recorded outcome of one executed
// configuration. ExitStatus is whatever the external executor reported,
// verbatim; the analyzer only distinguishes 0 from nonzero. Append-only.
type ExecutionResult struct {
	ConfigurationID int     `json:"configuration_id"`
	ExitStatus      int     `json:"exit_status"`
	DurationSeconds float64 `json:"duration_seconds"`
	Notes           string  `json:"notes,omitempty"`
}

// Passed reports whether the run succeeded (exit status 0).
func (r ExecutionResult) Passed() bool { return r.ExitStatus == 0 }

// CategoryStats is the per-category impact row. RateDefined is false
// when the category had zero non-baseline occurrences in the result
// set: the rate is then "N/A", never a misleading 100% or 0%.
type CategoryStats struct {
	Category           string  `json:"category"`
	Runs               int     `json:"runs"`
	RateDefined        bool    `json:"rate_defined"`
	SuccessRatePct     float64 `json:"success_rate_pct"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
	// MostFrequentFailureLevel is the level of this category that
	// appeared in the most failing runs, empty when none failed.
	MostFrequentFailureLevel string `json:"most_frequent_failure_level,omitempty"`
}

// SlowConfiguration is one entry of the slowest-configurations ranking.
type SlowConfiguration struct {
	ConfigurationID int     `json:"configuration_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	Levels          string  `json:"levels"`
}

// FailurePattern groups failing runs by their tuple of non-baseline
// levels.
type FailurePattern struct {
	Levels string `json:"levels"`
	Count  int    `json:"count"`
}

// Report is the full correlation output.
type Report struct {
	Categories      []CategoryStats     `json:"categories"`
	Slowest         []SlowConfiguration `json:"slowest"`
	FailurePatterns []FailurePattern    `json:"failure_patterns"`
	Unmatched       int                 `json:"unmatched,omitempty"` // results with no known configuration
}
