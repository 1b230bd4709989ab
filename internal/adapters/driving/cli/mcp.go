package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/adapters/driving/mcp"
	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
indexed report and extract its debt figures.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

The server reloads the index whenever a new snapshot is published.

Examples:
  # Stdio mode (default)
  debtscan mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  debtscan mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "debtscan": {
        "command": "/path/to/debtscan",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if retriever == nil {
		return errors.New("search service not configured")
	}

	ctx := commandContext(cmd)
	if err := startServing(ctx); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Search:    retriever,
		Extractor: debtExtractor,
		Manifest:  retriever,
	}
	if buildCatalog != nil {
		ports.History = buildCatalog
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// startServing opens the retriever for a long-running server and reloads
// it whenever a new snapshot becomes current. A missing snapshot is not
// fatal: searches fail until the first build is published.
func startServing(ctx context.Context) error {
	if err := openRetriever(ctx); err != nil {
		if !errors.Is(err, domain.ErrArtifactMissing) {
			return err
		}
		logger.Warn("%v", err)
	}

	if watchSnapshots == nil {
		return nil
	}
	return watchSnapshots(ctx, func(version string) {
		if err := retriever.Reload(ctx); err != nil {
			logger.Warn("reload snapshot %s: %v", version, err)
		}
	})
}
