package driving

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// IngestResult summarises one ingestion run.
type IngestResult struct {
	// Pages is the number of physical pages read.
	Pages int

	// BlankPages is the number of pages without text.
	BlankPages int

	// Chunks are the produced chunks in page order.
	Chunks []domain.Chunk
}

// IngestService turns a document into chunks.
type IngestService interface {
	// Ingest reads the document at path and chunks every page.
	Ingest(ctx context.Context, path string) (*IngestResult, error)
}
