package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
// Known texts map to fixed vectors; anything else maps to unknown.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	unknown  []float32
	err      error
	batchErr error
	maxBatch int
	calls    int
	batches  [][]string
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.unknown
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.unknown) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// limitedEmbedder adds a provider batch limit.
type limitedEmbedder struct {
	*mockEmbedder
}

func (l limitedEmbedder) MaxBatchSize() int { return l.maxBatch }

// mockSnapshotStore implements driven.SnapshotStore in memory.
type mockSnapshotStore struct {
	mu         sync.Mutex
	published  []*driven.Snapshot
	current    *driven.Snapshot
	publishErr error
	openErr    error
	opens      int
}

func (m *mockSnapshotStore) Publish(_ context.Context, snap *driven.Snapshot) (domain.IndexManifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return domain.IndexManifest{}, m.publishErr
	}
	manifest := snap.Manifest
	manifest.Version = fmt.Sprintf("v%d", len(m.published)+1)
	copied := *snap
	copied.Manifest = manifest
	m.published = append(m.published, &copied)
	m.current = &copied
	return manifest, nil
}

func (m *mockSnapshotStore) Open(_ context.Context) (*driven.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	if m.openErr != nil {
		return nil, m.openErr
	}
	if m.current == nil {
		return nil, &domain.ArtifactError{Artifact: "snapshot", Path: "mem", Hint: "build it"}
	}
	return m.current, nil
}

func (m *mockSnapshotStore) Current(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", &domain.ArtifactError{Artifact: "snapshot", Path: "mem"}
	}
	return m.current.Manifest.Version, nil
}

func (m *mockSnapshotStore) Versions(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, s := range m.published {
		out = append(out, s.Manifest.Version)
	}
	return out, nil
}

func (m *mockSnapshotStore) Manifest(_ context.Context, version string) (domain.IndexManifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.published {
		if s.Manifest.Version == version {
			return s.Manifest, nil
		}
	}
	return domain.IndexManifest{}, &domain.ArtifactError{Artifact: "manifest", Path: version}
}

func (m *mockSnapshotStore) Prune(_ context.Context, _ int) ([]string, error) {
	return nil, nil
}

// mockCatalog implements driven.BuildCatalog for testing.
type mockCatalog struct {
	recorded []domain.IndexManifest
	err      error
}

func (m *mockCatalog) Record(_ context.Context, manifest domain.IndexManifest) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, manifest)
	return nil
}

func (m *mockCatalog) List(_ context.Context, _ int) ([]domain.IndexManifest, error) {
	return m.recorded, nil
}

func (m *mockCatalog) Close() error { return nil }

// mockSearch implements driving.SearchService for testing.
type mockSearch struct {
	hits  []domain.SearchHit
	err   error
	query string
	k     int
}

func (m *mockSearch) Search(_ context.Context, query string, k int) ([]domain.SearchHit, error) {
	m.query = query
	m.k = k
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// flatFactory builds real flat indexes.
func flatFactory(dim int) (driven.VectorIndex, error) {
	return flat.New(dim)
}

// snapshotOf builds a snapshot over vectors with one text per vector.
func snapshotOf(version string, vectors [][]float32, texts []string) *driven.Snapshot {
	idx, err := flat.New(len(vectors[0]))
	if err != nil {
		panic(err)
	}
	if err := idx.Add(context.Background(), vectors); err != nil {
		panic(err)
	}
	meta := make([]domain.ChunkMetadata, len(texts))
	for i := range texts {
		meta[i] = domain.ChunkMetadata{Source: "10k.pdf", PageNumber: domain.PageRef(i + 1)}
	}
	return &driven.Snapshot{
		Index:    idx,
		Texts:    texts,
		Metadata: meta,
		Manifest: domain.IndexManifest{Version: version, ChunkCount: len(vectors)},
	}
}

var errProvider = errors.New("provider down")
