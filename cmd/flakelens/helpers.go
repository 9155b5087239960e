package main

import (
	"fmt"
	"os"

	"flakelens/internal/correlate"
	"flakelens/internal/matrix"
)

// readResultsFile opens an executed results CSV and returns the
// configurations reconstructed from it together with the results.
func readResultsFile(path string) ([]matrix.Configuration, []correlate.ExecutionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open results CSV %s: %w", path, err)
	}
	defer f.Close()
	return correlate.ReadResultsCSV(f)
}
