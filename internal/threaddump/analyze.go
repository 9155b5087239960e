package threaddump

import (
	"errors"
	"fmt"
	"os"
)

// Analyze parses a snapshot and runs the full contention analysis:
// wait-for graph, deadlock cycles, contention hubs, by-state summary.
func Analyze(data []byte) (*Analysis, error) {
	snap, err := Parse(data)
	if err != nil {
		return nil, err
	}
	graph := BuildGraph(snap)
	return &Analysis{
		Snapshot:    snap,
		Graph:       graph,
		Cycles:      DetectCycles(graph),
		Hubs:        ContentionHubs(snap),
		StateCounts: StateCounts(snap),
	}, nil
}

// AnalyzeFile reads and analyzes a dump file. A missing file is
// reported with the exact path; the caller decides whether the dump
// was optional.
func AnalyzeFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("thread dump %s does not exist: %w", path, err)
		}
		return nil, fmt.Errorf("read thread dump %s: %w", path, err)
	}
	a, err := Analyze(data)
	if err != nil {
		return nil, fmt.Errorf("thread dump %s: %w", path, err)
	}
	return a, nil
}
