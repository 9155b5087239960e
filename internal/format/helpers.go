package format

import "fmt"

// FmtScore renders a flakiness score as a fixed two-decimal string so
// reports diff cleanly across sessions.
func FmtScore(s float64) string {
	return fmt.Sprintf("%.2f", s)
}

// FmtPercent renders a rate as "97.5%"; NaN-free by construction since
// callers gate on rate availability.
func FmtPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FmtSeconds renders a duration in seconds with one decimal.
func FmtSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
