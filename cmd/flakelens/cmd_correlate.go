package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flakelens/internal/correlate"
	"flakelens/internal/format"
	"flakelens/internal/matrix"
	"flakelens/internal/store"
)

var correlateFlags struct {
	matrixCSV     string
	dbPath        string
	investigation string
	save          bool
}

var correlateCmd = &cobra.Command{
	Use:   "correlate <results.csv>",
	Short: "Correlate executed configuration results back to factors",
	Long: `Join an executed results CSV back to its configurations and report
per-category success rates, the slowest configurations, and the most
common failure patterns.

By default the configurations are reconstructed from the level columns
of the results CSV itself. With --matrix, the generated matrix CSV
defines the configuration universe instead, so results referencing
unknown ids are detected and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrelate,
}

func init() {
	f := correlateCmd.Flags()
	f.StringVar(&correlateFlags.matrixCSV, "matrix", "", "Generated matrix CSV defining the configuration universe")
	f.StringVar(&correlateFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&correlateFlags.investigation, "investigation", "default", "Investigation name for the store")
	f.BoolVar(&correlateFlags.save, "save", false, "Append the results to the store")
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	configs, results, err := readResultsFile(args[0])
	if err != nil {
		return err
	}
	if correlateFlags.matrixCSV != "" {
		configs, err = readMatrixFile(correlateFlags.matrixCSV)
		if err != nil {
			return err
		}
	}
	rep := correlate.Analyze(configs, results)

	if correlateFlags.save {
		if err := saveResults(args[0]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	t := format.NewTable(format.ASCII)
	t.Header("Category", "Runs", "Success Rate", "Avg Duration", "Worst Level")
	for _, c := range rep.Categories {
		rate, avg := "N/A", "N/A"
		if c.RateDefined {
			rate = format.FmtPercent(c.SuccessRatePct)
			avg = format.FmtSeconds(c.AvgDurationSeconds)
		}
		t.Row(c.Category, c.Runs, rate, avg, c.MostFrequentFailureLevel)
	}
	fmt.Fprintln(out, t.String())

	if len(rep.FailurePatterns) > 0 {
		fmt.Fprintln(out, "\nMost common failure patterns:")
		for _, p := range rep.FailurePatterns {
			fmt.Fprintf(out, "  %s (%d failures)\n", p.Levels, p.Count)
		}
	}
	if rep.Unmatched > 0 {
		fmt.Fprintf(out, "\n%d result(s) referenced unknown configurations and were skipped\n", rep.Unmatched)
	}
	return nil
}

func readMatrixFile(path string) ([]matrix.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix CSV %s: %w", path, err)
	}
	defer f.Close()
	return matrix.ReadCSV(f)
}

func saveResults(path string) error {
	configs, results, err := readResultsFile(path)
	if err != nil {
		return err
	}
	st, err := openStore(correlateFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveMatrix(correlateFlags.investigation, configs); err != nil {
		return err
	}
	return st.AppendResults(correlateFlags.investigation, results)
}
