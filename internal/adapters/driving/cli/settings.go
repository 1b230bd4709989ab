package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

var (
	providerModel  string
	providerAPIKey string
)

// stdin is the reader used for interactive prompts.
var stdin io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, chunking, index and
extraction settings.

Settings are stored as TOML in the configuration directory. The OpenAI API
key is read from OPENAI_API_KEY (or a .env file) unless embedding.api_key
is set.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Set one setting by its configuration key, for example:

  debtscan settings set chunking.size 1000
  debtscan settings set retrieval.query_timeout 45s

Run 'debtscan settings keys' to list the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider [name]",
	Short: "Configure the embedding provider",
	Long: `Configure the embedding provider. Without a name, the provider is
chosen interactively.

Available providers:
  ollama - local Ollama instance (no API key)
  openai - OpenAI API (requires an API key)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsProvider,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsProviderCmd.Flags().StringVar(&providerModel, "model", "", "embedding model (default per provider)")
	settingsProviderCmd.Flags().StringVar(&providerAPIKey, "api-key", "", "provider API key")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	cmd.Printf("  Model: %s\n", e.Model)
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider.RequiresAPIKey() {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(e.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if e.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", e.Dimensions)
	}
	cmd.Printf("  Batch size: %d\n", e.BatchSize)
	cmd.Printf("  Concurrency: %d\n", e.Concurrency)
	cmd.Printf("  Max retries: %d\n", e.MaxRetries)
	if e.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/s: %g\n", e.RequestsPerSecond)
	}
	cmd.Printf("  Timeout: %s\n", e.Timeout)
	status := "configured"
	if !e.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Directory: %s\n", settings.Index.Dir)
	cmd.Printf("  Keep: %d\n", settings.Index.Keep)
	if settings.Index.CatalogDir != "" {
		cmd.Printf("  Catalog: %s\n", settings.Index.CatalogDir)
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  K: %d\n", settings.Retrieval.K)
	cmd.Printf("  Query timeout: %s\n", settings.Retrieval.QueryTimeout)
	cmd.Printf("  Cache size: %d\n", settings.Retrieval.CacheSize)
	cmd.Println()

	cmd.Println("[Extraction]")
	cmd.Printf("  Candidates: %d\n", settings.Extraction.Candidates)
	cmd.Printf("  Window: %d\n", settings.Extraction.Window)
	cmd.Println()

	if !e.IsConfigured() {
		cmd.Println("Run 'debtscan settings provider' to configure embeddings.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(stdin)

	var provider domain.AIProvider
	if len(args) == 1 {
		provider = domain.AIProvider(strings.ToLower(args[0]))
	} else {
		cmd.Println("Select Embedding Provider")
		providers := domain.AllEmbeddingProviders()
		for i, p := range providers {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		idx := parseChoice(readLine(reader), len(providers), 1)
		provider = providers[idx-1]
	}
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", provider)
	}

	apiKey := providerAPIKey
	if apiKey == "" && provider.RequiresAPIKey() && os.Getenv("OPENAI_API_KEY") == "" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(provider, providerModel, apiKey); err != nil {
		if errors.Is(err, domain.ErrCredentialsMissing) {
			return errors.New("API key is required for this provider: pass --api-key or set OPENAI_API_KEY")
		}
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	model := providerModel
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println("Rebuild the index with 'debtscan index build' to use the new model.")
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func readPassword(reader *bufio.Reader) string {
	// Try to read password without echo
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
