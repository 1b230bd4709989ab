package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/storage/jsonl"
)

// DefaultChunksFile is where ingest writes and index build reads chunks.
const DefaultChunksFile = "data/chunks.jsonl"

var ingestOutput string

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdf]",
	Short: "Extract and chunk the pages of a PDF",
	Long: `Reads every page of a PDF with pdftotext, splits each page into
overlapping chunks and writes them as JSON lines.

Each line carries the chunk text and its page provenance:
  {"text": "...", "metadata": {"source": "report.pdf", "page_number": 88, "chunk_index": 0}}`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", DefaultChunksFile, "chunk file to write")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	result, err := ingestService.Ingest(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if err := jsonl.WriteFile(ingestOutput, result.Chunks); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}

	cmd.Printf("Read %d pages (%d without text)\n", result.Pages, result.BlankPages)
	cmd.Printf("Wrote %d chunks to %s\n", len(result.Chunks), ingestOutput)
	return nil
}
