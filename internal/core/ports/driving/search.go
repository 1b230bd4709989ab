package driving

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// MaxSearchK is the largest k accepted from remote callers.
const MaxSearchK = 1000

// SearchService provides semantic search over the current snapshot.
type SearchService interface {
	// Search returns up to k hits ordered by non-decreasing distance.
	Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error)
}

// Retriever is a SearchService with an explicit snapshot lifecycle.
type Retriever interface {
	SearchService

	// Open loads the current snapshot. Calling Open on an open retriever is a no-op.
	Open(ctx context.Context) error

	// Reload loads the newest snapshot and swaps it in atomically.
	Reload(ctx context.Context) error

	// Manifest returns the manifest of the loaded snapshot.
	Manifest() (domain.IndexManifest, bool)

	// Close releases the loaded snapshot.
	Close() error
}
