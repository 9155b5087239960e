package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"flakelens/internal/format"
	"flakelens/internal/threaddump"
)

var threadsCmd = &cobra.Command{
	Use:   "threads <dump.json>",
	Short: "Analyze a thread-dump snapshot for deadlocks and contention",
	Args:  cobra.ExactArgs(1),
	RunE:  runThreads,
}

func runThreads(cmd *cobra.Command, args []string) error {
	analysis, err := threaddump.AnalyzeFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(analysis.Cycles) == 0 {
		fmt.Fprintln(out, "No deadlocks detected.")
	} else {
		fmt.Fprintf(out, "%d deadlock cycle(s) detected:\n", len(analysis.Cycles))
		for _, cycle := range analysis.Cycles {
			fmt.Fprintf(out, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
	}

	if len(analysis.Hubs) > 0 {
		t := format.NewTable(format.ASCII)
		t.Header("Lock", "Waiting Threads")
		for _, h := range analysis.Hubs {
			t.Row(h.Lock, len(h.Waiters))
		}
		fmt.Fprintln(out, t.String())
	}

	states := make([]string, 0, len(analysis.StateCounts))
	for s := range analysis.StateCounts {
		states = append(states, string(s))
	}
	sort.Strings(states)
	var parts []string
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", s, analysis.StateCounts[threaddump.State(s)]))
	}
	fmt.Fprintf(out, "Threads by state: %s\n", strings.Join(parts, ", "))
	return nil
}
