package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed report",
	Long: `Embeds the query and returns the nearest chunks of the current snapshot
by Euclidean distance, closest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 4, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retriever == nil {
		return errors.New("search service not configured")
	}

	ctx := commandContext(cmd)
	if err := openRetriever(ctx); err != nil {
		return err
	}

	results, err := retriever.Search(ctx, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}

	return outputSearchText(cmd, results)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchHit) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range results {
		cmd.Printf("%s (%.4f)\n", pageLabel(results[i].Metadata), results[i].Distance)
		if results[i].Unresolved {
			cmd.Printf("  position %d has no stored text\n", results[i].Position)
		} else {
			cmd.Println(strings.TrimSpace(results[i].Text))
		}
		cmd.Println()
	}

	return nil
}

// pageLabel renders the page tag of a chunk.
func pageLabel(m domain.ChunkMetadata) string {
	if page, ok := m.Page(); ok {
		return fmt.Sprintf("[PAGE %d]", page)
	}
	return "[PAGE ?]"
}
