package driving

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// ProgressFunc is called after each embedding batch with the number of
// chunks embedded so far and the total.
type ProgressFunc func(done, total int)

// IndexService builds and publishes index snapshots.
type IndexService interface {
	// Build embeds all chunks, builds the index and publishes it.
	// An empty chunk set returns domain.ErrEmptyCorpus.
	Build(ctx context.Context, chunks []domain.Chunk, source string) (*domain.IndexManifest, error)

	// SetProgress registers a progress callback. Nil disables it.
	SetProgress(fn ProgressFunc)
}
