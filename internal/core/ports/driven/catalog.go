package driven

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// BuildCatalog records the history of published snapshots.
type BuildCatalog interface {
	// Record stores the manifest of a published snapshot.
	Record(ctx context.Context, manifest domain.IndexManifest) error

	// List returns the most recent manifests, newest first.
	List(ctx context.Context, limit int) ([]domain.IndexManifest, error)

	// Close releases resources.
	Close() error
}
