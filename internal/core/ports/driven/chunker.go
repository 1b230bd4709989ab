package driven

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// Chunker splits pages into bounded, overlapping chunks.
// Implementations must be deterministic: identical pages and configuration
// always produce the identical chunk sequence.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// ChunkPages splits every page independently. Chunks never cross pages.
	ChunkPages(ctx context.Context, pages []domain.Page) ([]domain.Chunk, error)
}
