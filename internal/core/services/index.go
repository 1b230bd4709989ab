package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultBatchSize is the number of chunks per embedding request.
const DefaultBatchSize = 64

// IndexFactory creates an empty vector index for the given dimension.
type IndexFactory func(dimension int) (driven.VectorIndex, error)

// IndexService embeds chunks, builds a vector index and publishes it as
// a snapshot.
type IndexService struct {
	embedder    driven.EmbeddingService
	store       driven.SnapshotStore
	newIndex    IndexFactory
	catalog     driven.BuildCatalog
	batchSize   int
	concurrency int
	now         func() time.Time

	mu       sync.Mutex
	progress driving.ProgressFunc
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency sets how many batches are embedded in parallel.
func WithConcurrency(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCatalog records every published manifest in catalog.
func WithCatalog(catalog driven.BuildCatalog) IndexOption {
	return func(s *IndexService) {
		s.catalog = catalog
	}
}

// NewIndexService creates a new index service.
func NewIndexService(
	embedder driven.EmbeddingService,
	store driven.SnapshotStore,
	newIndex IndexFactory,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		embedder:    embedder,
		store:       store,
		newIndex:    newIndex,
		batchSize:   DefaultBatchSize,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProgress registers a progress callback. Nil disables it.
func (s *IndexService) SetProgress(fn driving.ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = fn
}

// Build embeds all chunks, builds an index over them and publishes the
// snapshot. Nothing is written when any step fails.
func (s *IndexService) Build(ctx context.Context, chunks []domain.Chunk, source string) (*domain.IndexManifest, error) {
	logger.Section("Index Build")
	defer logger.Timed("index build")()

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrEmptyCorpus)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	texts := make([]string, len(chunks))
	metadata := make([]domain.ChunkMetadata, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		metadata[i] = c.Metadata
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	idx, err := s.newIndex(dim)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := idx.Add(ctx, vectors); err != nil {
		idx.Close()
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	defer idx.Close()

	manifest, err := s.store.Publish(ctx, &driven.Snapshot{
		Index:    idx,
		Texts:    texts,
		Metadata: metadata,
		Manifest: domain.IndexManifest{
			CreatedAt:  s.now().UTC(),
			Model:      s.embedder.ModelName(),
			Dimensions: dim,
			ChunkCount: len(chunks),
			Source:     source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	logger.Info("Published snapshot %s: %d chunks, %d dimensions", manifest.Version, manifest.ChunkCount, dim)

	if s.catalog != nil {
		// The snapshot is already live; a catalog failure only loses history.
		if err := s.catalog.Record(ctx, manifest); err != nil {
			logger.Warn("record build %s in catalog: %v", manifest.Version, err)
		}
	}

	return &manifest, nil
}

// embedAll embeds texts in batches and reassembles the vectors in input order.
// Every vector must have the same dimension.
func (s *IndexService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	size := s.effectiveBatchSize()
	total := len(texts)
	vectors := make([][]float32, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < total; start += size {
		end := min(start+size, total)
		batch := start / size
		g.Go(func() error {
			got, err := s.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed batch %d: %w", batch, err)
			}
			if len(got) != end-start {
				return fmt.Errorf("%w: batch %d returned %d vectors for %d texts",
					domain.ErrDimensionMismatch, batch, len(got), end-start)
			}
			copy(vectors[start:end], got)

			mu.Lock()
			done += end - start
			n := done
			mu.Unlock()
			s.report(n, total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vectors", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if want := s.embedder.Dimensions(); want > 0 && want != dim {
		logger.Warn("model %s reports %d dimensions but returned %d", s.embedder.ModelName(), want, dim)
	}

	return vectors, nil
}

// effectiveBatchSize caps the configured batch size at the provider limit.
func (s *IndexService) effectiveBatchSize() int {
	size := s.batchSize
	if bl, ok := s.embedder.(driven.BatchLimiter); ok {
		if limit := bl.MaxBatchSize(); limit > 0 && limit < size {
			size = limit
		}
	}
	return size
}

func (s *IndexService) report(done, total int) {
	logger.Info("Embeddings: %d/%d", done, total)

	s.mu.Lock()
	fn := s.progress
	s.mu.Unlock()
	if fn != nil {
		fn(done, total)
	}
}
