package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"flakelens/internal/correlate"
	"flakelens/internal/flakiness"
	"flakelens/internal/ingest"
	"flakelens/internal/report"
	"flakelens/internal/store"
	"flakelens/internal/threaddump"
)

var analyzeFlags struct {
	runsDir       string
	threadDump    string
	resultsCSV    string
	investigation string
	outputPath    string
	jsonOutput    bool
	dbPath        string
	save          bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [runs-dir]",
	Short: "Aggregate flakiness evidence across repeated test runs",
	Long: `Parse every run log in a directory, score per-test flakiness, and
compose the investigation report. A thread dump and an executed
results CSV are merged in when given.

Usage:
  flakelens analyze ./runs
  flakelens analyze ./runs --thread-dump dump.json --results results.csv
  flakelens analyze ./runs --json -o report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.runsDir, "runs", "", "Directory with one run log per file")
	f.StringVar(&analyzeFlags.threadDump, "thread-dump", "", "Optional JSON thread-dump snapshot")
	f.StringVar(&analyzeFlags.resultsCSV, "results", "", "Optional executed results CSV")
	f.StringVar(&analyzeFlags.investigation, "investigation", "", "Investigation name for the report and store")
	f.StringVarP(&analyzeFlags.outputPath, "output", "o", "", "Write the report to this path instead of stdout")
	f.BoolVar(&analyzeFlags.jsonOutput, "json", false, "Emit JSON instead of Markdown")
	f.StringVar(&analyzeFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.BoolVar(&analyzeFlags.save, "save", false, "Persist runs and verdicts to the store")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	runsDir := analyzeFlags.runsDir
	if runsDir == "" && len(args) > 0 {
		runsDir = args[0]
	}
	if runsDir == "" {
		return fmt.Errorf("runs directory is required\n\nUsage: flakelens analyze <runs-dir>")
	}

	runs, err := ingest.IngestDir(cmd.Context(), runsDir)
	if err != nil {
		return err
	}
	fl := flakiness.Aggregate(flakiness.BuildHistories(runs))

	var td *threaddump.Analysis
	if analyzeFlags.threadDump != "" {
		td, err = threaddump.AnalyzeFile(analyzeFlags.threadDump)
		if err != nil {
			// Only an absent dump is optional; a present-but-broken one is
			// an input error and must fail the command.
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; contention section will note the missing dump\n", err)
			td = nil
		}
	}

	var corr *correlate.Report
	if analyzeFlags.resultsCSV != "" {
		corr, err = loadCorrelation(analyzeFlags.resultsCSV)
		if err != nil {
			return err
		}
	}

	rep := report.Compose(analyzeFlags.investigation, fl, td, corr)

	if analyzeFlags.save {
		if err := saveAnalysis(runs, fl); err != nil {
			return err
		}
	}

	var out []byte
	if analyzeFlags.jsonOutput {
		out, err = rep.JSON()
		if err != nil {
			return err
		}
	} else {
		out = []byte(rep.Markdown())
	}
	return writeOutput(cmd, analyzeFlags.outputPath, out)
}

func loadCorrelation(path string) (*correlate.Report, error) {
	configs, results, err := readResultsFile(path)
	if err != nil {
		return nil, err
	}
	return correlate.Analyze(configs, results), nil
}

func saveAnalysis(runs []*ingest.Run, fl *flakiness.Result) error {
	st, err := openStore(analyzeFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	name := analyzeFlags.investigation
	if name == "" {
		name = "default"
	}
	for _, run := range runs {
		if err := st.SaveRun(name, run); err != nil {
			return err
		}
	}
	verdicts := append(append([]flakiness.Verdict(nil), fl.Verdicts...), fl.Insufficient...)
	return st.SaveVerdicts(name, verdicts)
}

func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}
	return store.Open(path)
}

// writeOutput writes to path or stdout. Permission failures surface
// with the path, never as a generic error.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("cannot write report %s: permission denied", path)
		}
		return fmt.Errorf("write report %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to: %s\n", path)
	return nil
}
