package cmd

import (
	"log/slog"

	"github.com/jcdickinson/ferrisdoc/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve doc comment extraction as an MCP server over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(newRunner(), version, cfg.Extract.PublicOnly)
		slog.Debug("serving MCP on stdio")
		return server.Run()
	},
}
