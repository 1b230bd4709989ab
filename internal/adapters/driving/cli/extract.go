package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// supportingQuery retrieves extra context shown under the extraction report.
const supportingQuery = "debt and finance leases total debt"

// supportingHits is the number of supporting chunks shown.
const supportingHits = 2

// supportingChars caps how much of each supporting chunk is printed.
const supportingChars = 600

var (
	extractJSON   bool
	extractStrict bool
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	totalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract total debt from the indexed report",
	Long: `Retrieves candidate chunks, classifies the consolidated and VIE debt
tables and sums their figures (USD millions):

  total debt = consolidated total debt and finance leases
             + consolidated debt net of current portion
             + VIE current portion
             + VIE debt net of current portion

A total is only reported when all four figures were found. Use --strict
to exit with an error otherwise.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the result as JSON")
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "fail when any figure is missing")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if debtExtractor == nil {
		return errors.New("debt extractor not configured")
	}

	ctx := commandContext(cmd)
	if err := openRetriever(ctx); err != nil {
		return err
	}

	result, err := debtExtractor.ExtractDebtTotal(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractJSON {
		if err := outputJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printExtraction(cmd, result)
		printSupporting(cmd)
	}

	if extractStrict {
		return result.Ready()
	}
	return nil
}

func printExtraction(cmd *cobra.Command, r *domain.ExtractionResult) {
	cmd.Println(headerStyle.Render("Debt components (USD millions)"))
	printComponent(cmd, "Consolidated total debt and finance leases", r.Components.ConsolidatedTotal)
	printComponent(cmd, "Consolidated net of current portion", r.Components.ConsolidatedNet)
	printComponent(cmd, "VIE current portion", r.Components.VIECurrent)
	printComponent(cmd, "VIE net of current portion", r.Components.VIELong)
	cmd.Println()

	if r.DebtTotal != nil {
		cmd.Println(totalStyle.Render(fmt.Sprintf("Total debt: %s", formatAmount(*r.DebtTotal))))
	} else {
		cmd.Println(missingStyle.Render("Total debt: not available"))
		cmd.Printf("Missing: %s\n", strings.Join(r.Missing, ", "))
	}
	cmd.Println()

	if len(r.Evidence) == 0 {
		return
	}
	cmd.Println(headerStyle.Render("Evidence"))
	for _, ev := range r.Evidence {
		page := "?"
		if ev.PageNumber != nil {
			page = fmt.Sprintf("%d", *ev.PageNumber)
		}
		cmd.Printf("[%s | PAGE %s]\n", ev.Role, page)
		cmd.Println(dimStyle.Render(ev.Snippet))
		cmd.Println()
	}
}

func printComponent(cmd *cobra.Command, label string, v *float64) {
	value := missingStyle.Render("not found")
	if v != nil {
		value = formatAmount(*v)
	}
	cmd.Printf("  %-44s %s\n", label+":", value)
}

// printSupporting shows the chunks nearest to a plain-language debt query.
// Failures are logged to the output and do not fail the command.
func printSupporting(cmd *cobra.Command) {
	if retriever == nil {
		return
	}

	hits, err := retriever.Search(commandContext(cmd), supportingQuery, supportingHits)
	if err != nil {
		cmd.Printf("Supporting context unavailable: %v\n", err)
		return
	}
	if len(hits) == 0 {
		return
	}

	cmd.Println(headerStyle.Render("Supporting context"))
	for i := range hits {
		cmd.Println(pageLabel(hits[i].Metadata))
		cmd.Println(dimStyle.Render(truncateRunes(strings.TrimSpace(hits[i].Text), supportingChars)))
		cmd.Println()
	}
}

// formatAmount renders a figure rounded to whole units with thousands separators.
func formatAmount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// truncateRunes keeps the first n characters of s.
func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
