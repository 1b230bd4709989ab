package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService reads a filing page by page and chunks it.
type IngestService struct {
	loader  driven.PageLoader
	chunker driven.Chunker
}

// NewIngestService creates a new ingest service.
func NewIngestService(loader driven.PageLoader, chunker driven.Chunker) *IngestService {
	return &IngestService{
		loader:  loader,
		chunker: chunker,
	}
}

// Ingest loads every page of the document at path and chunks it.
// A document without any text is not an error; it yields zero chunks.
func (s *IngestService) Ingest(ctx context.Context, path string) (*driving.IngestResult, error) {
	logger.Section("Ingest")
	defer logger.Timed("ingest")()

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: document path is required", domain.ErrInvalidInput)
	}

	pages, err := s.loader.LoadPages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	blank := 0
	for _, p := range pages {
		if p.IsBlank() {
			blank++
		}
	}
	logger.Info("Loaded %d pages (%d without text)", len(pages), blank)

	chunks, err := s.chunker.ChunkPages(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("chunk pages with %s: %w", s.chunker.Name(), err)
	}
	logger.Info("Produced %d chunks", len(chunks))

	return &driving.IngestResult{
		Pages:      len(pages),
		BlankPages: blank,
		Chunks:     chunks,
	}, nil
}
