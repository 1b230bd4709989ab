package driven

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// Snapshot is one immutable index build: the vector index plus its
// two position-aligned side tables.
type Snapshot struct {
	// Index holds the vectors. Position i refers to Texts[i] and Metadata[i].
	Index VectorIndex

	// Texts is the chunk text side table.
	Texts []string

	// Metadata is the chunk metadata side table.
	Metadata []domain.ChunkMetadata

	// Manifest describes the build.
	Manifest domain.IndexManifest
}

// SnapshotStore persists snapshots so that readers never observe a
// partially written build.
type SnapshotStore interface {
	// Publish writes the snapshot as a new version and atomically makes it
	// current. Manifest.Version is assigned by the store.
	Publish(ctx context.Context, snap *Snapshot) (domain.IndexManifest, error)

	// Open loads the current snapshot. A missing artifact returns
	// a *domain.ArtifactError.
	Open(ctx context.Context) (*Snapshot, error)

	// Current returns the version of the current snapshot.
	Current(ctx context.Context) (string, error)

	// Versions lists stored versions, oldest first.
	Versions(ctx context.Context) ([]string, error)

	// Manifest reads the manifest of one stored version.
	Manifest(ctx context.Context, version string) (domain.IndexManifest, error)

	// Prune removes all but the newest keep versions. The current
	// version is never removed.
	Prune(ctx context.Context, keep int) ([]string, error)
}
