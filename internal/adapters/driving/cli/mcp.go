package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search
and question your documents.

By default the server speaks JSON-RPC over stdio. Use --port to serve
HTTP instead; Prometheus metrics are then exposed on /metrics.

Examples:
  # Stdio mode (default, for desktop assistants)
  studymate mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  studymate mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "studymate": {
        "command": "/path/to/studymate",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Answer:    answerService,
		Corpus:    corpusService,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
