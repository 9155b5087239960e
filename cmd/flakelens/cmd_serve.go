package main

import (
	"github.com/spf13/cobra"

	"flakelens/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis engine as MCP tools over stdio",
	Long: `Expose flakiness aggregation, thread-dump analysis, matrix generation
and result correlation as MCP tools so agent clients can drive an
investigation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcp.NewServer(version).Run(cmd.Context())
	},
}
