// Command debtscan retrieves debt figures from annual report PDFs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/ai"
	"github.com/custodia-labs/debtscan/internal/adapters/driven/config/file"
	snapshotfile "github.com/custodia-labs/debtscan/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/debtscan/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/debtscan/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/debtscan/internal/adapters/driving/cli"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/services"
	"github.com/custodia-labs/debtscan/internal/logger"
	"github.com/custodia-labs/debtscan/internal/normalisers/pdf"
	"github.com/custodia-labs/debtscan/internal/postprocessors"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires adapters into services once flags are parsed.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.IndexDir != "" {
		settings.Index.Dir = opts.IndexDir
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chunker, err := registry.Build(postprocessors.DefaultChunker, postprocessors.ConfigFromSettings(settings.Chunking))
	if err != nil {
		return nil, fmt.Errorf("configure chunker: %w", err)
	}

	// Commands that never embed must work without credentials, so a
	// provider error is reported when the embedder is first used.
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Debug("embedding provider unavailable: %v", err)
		embedder = ai.Unavailable(err)
	}

	store := snapshotfile.NewStore(settings.Index.Dir)

	catalogDir := settings.Index.CatalogDir
	if catalogDir == "" {
		catalogDir = filepath.Dir(configStore.Path())
	}
	var catalog driven.BuildCatalog
	if c, err := sqlite.NewStore(catalogDir); err != nil {
		logger.Warn("build catalog disabled: %v", err)
	} else {
		catalog = c
	}

	indexOpts := []services.IndexOption{
		services.WithBatchSize(settings.Embedding.BatchSize),
		services.WithConcurrency(settings.Embedding.Concurrency),
	}
	if catalog != nil {
		indexOpts = append(indexOpts, services.WithCatalog(catalog))
	}
	indexService := services.NewIndexService(embedder, store, newFlatIndex, indexOpts...)

	retriever := services.NewRetriever(store, embedder,
		services.WithDefaultK(settings.Retrieval.K),
		services.WithQueryTimeout(settings.Retrieval.QueryTimeout),
		services.WithCacheSize(settings.Retrieval.CacheSize),
	)

	extractor := services.NewDebtExtractor(retriever,
		services.WithCandidates(settings.Extraction.Candidates),
		services.WithWindow(settings.Extraction.Window),
	)

	return &cli.Services{
		Settings:  settingsService,
		Ingest:    services.NewIngestService(pdf.New(), chunker),
		Index:     indexService,
		Retriever: retriever,
		Extractor: extractor,
		Snapshots: store,
		Catalog:   catalog,
		Watch:     store.Watch,
		Close: func() error {
			var errs []error
			errs = append(errs, retriever.Close(), embedder.Close())
			if catalog != nil {
				errs = append(errs, catalog.Close())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func newFlatIndex(dimension int) (driven.VectorIndex, error) {
	idx, err := flat.New(dimension)
	if err != nil {
		return nil, err
	}
	return idx, nil
}
