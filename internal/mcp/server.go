// Package mcp exposes the analysis engine as MCP tools so agent
// clients can drive an investigation over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"flakelens/internal/config"
	"flakelens/internal/correlate"
	"flakelens/internal/flakiness"
	"flakelens/internal/ingest"
	"flakelens/internal/matrix"
	"flakelens/internal/report"
	"flakelens/internal/threaddump"
)

// Server wraps the MCP SDK server around the analysis tools.
type Server struct {
	MCPServer *sdkmcp.Server
}

// NewServer creates the MCP server and registers every analysis tool.
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "flakelens", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "ingest_runs",
		Description: "Parse every run log in a directory into structured per-test records, one run per file.",
	}, s.handleIngestRuns)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_flakiness",
		Description: "Ingest every run log in a directory and aggregate per-test flakiness verdicts.",
	}, s.handleAnalyzeFlakiness)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_threaddump",
		Description: "Analyze a JSON thread-dump snapshot: wait-for graph, deadlock cycles, contention hubs.",
	}, s.handleAnalyzeThreadDump)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "generate_matrix",
		Description: "Generate the pairwise experiment matrix from an investigation config file.",
	}, s.handleGenerateMatrix)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "correlate_results",
		Description: "Correlate an executed results CSV back to factors: success rates, slowest configurations, failure patterns.",
	}, s.handleCorrelateResults)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compose_report",
		Description: "Compose the merged Markdown report from run logs plus optional thread dump and results CSV.",
	}, s.handleComposeReport)
}

// --- Tool input/output types ---

type ingestRunsInput struct {
	RunsDir string `json:"runs_dir" jsonschema:"directory with one run log file per run"`
}

type ingestRunsOutput struct {
	Runs []*ingest.Run `json:"runs"`
}

type analyzeFlakinessInput struct {
	RunsDir string `json:"runs_dir" jsonschema:"directory with one run log file per run"`
}

type analyzeFlakinessOutput struct {
	Runs         int                 `json:"runs"`
	Verdicts     []flakiness.Verdict `json:"verdicts"`
	Insufficient []flakiness.Verdict `json:"insufficient,omitempty"`
}

type analyzeThreadDumpInput struct {
	Path string `json:"path" jsonschema:"path to the JSON thread-dump snapshot"`
}

type analyzeThreadDumpOutput struct {
	Cycles      [][]string               `json:"cycles"`
	Hubs        []threaddump.Hub         `json:"hubs"`
	StateCounts map[threaddump.State]int `json:"state_counts"`
}

type generateMatrixInput struct {
	ConfigPath string `json:"config_path" jsonschema:"path to the investigation YAML config"`
}

type generateMatrixOutput struct {
	Configurations []matrix.Configuration `json:"configurations"`
	CSV            string                 `json:"csv"`
}

type correlateResultsInput struct {
	ResultsCSV string `json:"results_csv" jsonschema:"path to the executed results CSV"`
}

type correlateResultsOutput struct {
	Report *correlate.Report `json:"report"`
}

type composeReportInput struct {
	RunsDir    string `json:"runs_dir" jsonschema:"directory with run logs"`
	ThreadDump string `json:"thread_dump,omitempty" jsonschema:"optional JSON thread-dump path"`
	ResultsCSV string `json:"results_csv,omitempty" jsonschema:"optional executed results CSV path"`
}

type composeReportOutput struct {
	Markdown string `json:"markdown"`
}

// --- Tool handlers ---

func (s *Server) handleIngestRuns(ctx context.Context, _ *sdkmcp.CallToolRequest, input ingestRunsInput) (*sdkmcp.CallToolResult, ingestRunsOutput, error) {
	runs, err := ingest.IngestDir(ctx, input.RunsDir)
	if err != nil {
		return nil, ingestRunsOutput{}, err
	}
	return nil, ingestRunsOutput{Runs: runs}, nil
}

func (s *Server) handleAnalyzeFlakiness(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeFlakinessInput) (*sdkmcp.CallToolResult, analyzeFlakinessOutput, error) {
	runs, err := ingest.IngestDir(ctx, input.RunsDir)
	if err != nil {
		return nil, analyzeFlakinessOutput{}, err
	}
	res := flakiness.Aggregate(flakiness.BuildHistories(runs))
	return nil, analyzeFlakinessOutput{
		Runs:         len(runs),
		Verdicts:     res.Verdicts,
		Insufficient: res.Insufficient,
	}, nil
}

func (s *Server) handleAnalyzeThreadDump(_ context.Context, _ *sdkmcp.CallToolRequest, input analyzeThreadDumpInput) (*sdkmcp.CallToolResult, analyzeThreadDumpOutput, error) {
	analysis, err := threaddump.AnalyzeFile(input.Path)
	if err != nil {
		return nil, analyzeThreadDumpOutput{}, err
	}
	return nil, analyzeThreadDumpOutput{
		Cycles:      analysis.Cycles,
		Hubs:        analysis.Hubs,
		StateCounts: analysis.StateCounts,
	}, nil
}

func (s *Server) handleGenerateMatrix(_ context.Context, _ *sdkmcp.CallToolRequest, input generateMatrixInput) (*sdkmcp.CallToolResult, generateMatrixOutput, error) {
	cfg, err := config.Load(input.ConfigPath)
	if err != nil {
		return nil, generateMatrixOutput{}, err
	}
	configs, err := matrix.Generate(cfg.Table(), cfg.MatrixTriples())
	if err != nil {
		return nil, generateMatrixOutput{}, err
	}
	var b strings.Builder
	if err := matrix.WriteCSV(&b, cfg.Table(), configs); err != nil {
		return nil, generateMatrixOutput{}, err
	}
	return nil, generateMatrixOutput{Configurations: configs, CSV: b.String()}, nil
}

func (s *Server) handleCorrelateResults(_ context.Context, _ *sdkmcp.CallToolRequest, input correlateResultsInput) (*sdkmcp.CallToolResult, correlateResultsOutput, error) {
	f, err := os.Open(input.ResultsCSV)
	if err != nil {
		return nil, correlateResultsOutput{}, fmt.Errorf("open results CSV %s: %w", input.ResultsCSV, err)
	}
	defer f.Close()
	configs, results, err := correlate.ReadResultsCSV(f)
	if err != nil {
		return nil, correlateResultsOutput{}, err
	}
	return nil, correlateResultsOutput{Report: correlate.Analyze(configs, results)}, nil
}

func (s *Server) handleComposeReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input composeReportInput) (*sdkmcp.CallToolResult, composeReportOutput, error) {
	runs, err := ingest.IngestDir(ctx, input.RunsDir)
	if err != nil {
		return nil, composeReportOutput{}, err
	}
	fl := flakiness.Aggregate(flakiness.BuildHistories(runs))

	var td *threaddump.Analysis
	if input.ThreadDump != "" {
		td, err = threaddump.AnalyzeFile(input.ThreadDump)
		if err != nil {
			return nil, composeReportOutput{}, err
		}
	}

	var corr *correlate.Report
	if input.ResultsCSV != "" {
		f, err := os.Open(input.ResultsCSV)
		if err != nil {
			return nil, composeReportOutput{}, fmt.Errorf("open results CSV %s: %w", input.ResultsCSV, err)
		}
		configs, results, err := correlate.ReadResultsCSV(f)
		f.Close()
		if err != nil {
			return nil, composeReportOutput{}, err
		}
		corr = correlate.Analyze(configs, results)
	}

	rep := report.Compose("", fl, td, corr)
	return nil, composeReportOutput{Markdown: rep.Markdown()}, nil
}
