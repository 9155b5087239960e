package flakiness

import "regexp"

// rule pairs a category with the pattern that selects it. Rules are
// data, not conditionals, so each one can be tested independently.
type rule struct {
	category Category
	pattern  *regexp.Regexp
}

// categoryRules is evaluated top to bottom against the concatenated
// error signatures of all failing runs; the first match wins.
//
// Concurrency and resource failures come first: they are the most
// specific, most actionable signal, and their stack traces often also
// contain generic assertion text that would otherwise mask them.
var categoryRules = []rule{
	{CategoryThreadSafety, regexp.MustCompile(`ConcurrentModificationException|Deadlock|race condition|IllegalMonitorState`)},
	{CategoryResourceContention, regexp.MustCompile(`OutOfMemory|connection pool|too many open files|Connection refused`)},
	{CategoryTiming, regexp.MustCompile(`Timed out|Thread\.sleep|wait condition|SocketTimeoutException`)},
	{CategoryExternalDependency, regexp.MustCompile(`http://|https://|service unavailable|endpoint`)},
	{CategoryEnvironmentDependency, regexp.MustCompile(`environment variable|System\.getProperty|getenv|configuration`)},
	{CategoryAssertionSensitivity, regexp.MustCompile(`AssertionError|expected:.*but was`)},
}

// Classify assigns a category to the combined failure evidence of one
// test. Empty or unmatched evidence yields CategoryUnknown.
func Classify(evidence string) Category {
	for _, r := range categoryRules {
		if r.pattern.MatchString(evidence) {
			return r.category
		}
	}
	return CategoryUnknown
}
