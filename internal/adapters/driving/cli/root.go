// Package cli implements the debtscan command line.
//
// Commands talk to core services through driving ports only. Services are
// injected with SetServices, or built lazily by the Bootstrap registered
// with SetBootstrap once persistent flags have been parsed.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// version is set by the main package at build time.
var version = "dev"

// Options carries persistent flag values to the Bootstrap.
type Options struct {
	// ConfigDir overrides the configuration directory. Empty uses the default.
	ConfigDir string

	// IndexDir overrides the configured snapshot directory.
	IndexDir string
}

// Services groups everything the commands need.
// Any field may be nil; commands that need a missing service fail with
// a "not configured" error.
type Services struct {
	Settings  driving.SettingsService
	Ingest    driving.IngestService
	Index     driving.IndexService
	Retriever driving.Retriever
	Extractor driving.DebtExtractor
	Snapshots driven.SnapshotStore
	Catalog   driven.BuildCatalog

	// Watch reports snapshot changes until ctx is done. Nil disables hot reload.
	Watch func(ctx context.Context, onChange func(version string)) error

	// Close releases resources after the command finishes.
	Close func() error
}

// Bootstrap builds services from parsed flags.
type Bootstrap func(opts Options) (*Services, error)

var (
	settingsService driving.SettingsService
	ingestService   driving.IngestService
	indexService    driving.IndexService
	retriever       driving.Retriever
	debtExtractor   driving.DebtExtractor
	snapshotStore   driven.SnapshotStore
	buildCatalog    driven.BuildCatalog
	watchSnapshots  func(ctx context.Context, onChange func(version string)) error
	closeServices   func() error
)

var (
	verbose   bool
	configDir string
	indexDir  string
	bootstrap Bootstrap
)

var rootCmd = &cobra.Command{
	Use:   "debtscan",
	Short: "Locate debt figures in annual report PDFs",
	Long: `debtscan turns an annual report PDF into a searchable embedding index
and extracts the figures that make up total debt, with page evidence.

Typical flow:
  debtscan ingest report.pdf
  debtscan index build
  debtscan extract`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.debtscan)")
	rootCmd.PersistentFlags().StringVar(&indexDir, "index-dir", "", "snapshot directory (overrides index.dir)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services before a command runs.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetServices injects the services used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	ingestService = s.Ingest
	indexService = s.Index
	retriever = s.Retriever
	debtExtractor = s.Extractor
	snapshotStore = s.Snapshots
	buildCatalog = s.Catalog
	watchSnapshots = s.Watch
	closeServices = s.Close
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, typically cancelled on SIGINT.
// Command output goes to stdout so that --json results can be piped.
func ExecuteContext(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	services, err := bootstrap(Options{ConfigDir: configDir, IndexDir: indexDir})
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	fn := closeServices
	closeServices = nil
	return fn()
}

// openRetriever loads the current snapshot into the retriever.
func openRetriever(ctx context.Context) error {
	if retriever == nil {
		return errors.New("retriever not configured")
	}
	return retriever.Open(ctx)
}

// commandContext returns the command context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
