package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start a JSON HTTP API over the current snapshot.

Endpoints:
  POST /search   {"query": "...", "k": 4}
  GET  /extract  debt components, total and evidence
  GET  /health   loaded snapshot manifest

The server reloads the index whenever a new snapshot is published.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if retriever == nil {
		return errors.New("search service not configured")
	}

	ctx := commandContext(cmd)
	if err := startServing(ctx); err != nil {
		return err
	}

	handler := httpapi.NewHandler(retriever, debtExtractor, retriever)
	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return httpapi.ListenAndServe(ctx, serveAddr, httpapi.NewRouter(handler))
}
