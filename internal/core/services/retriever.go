package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever defaults.
const (
	DefaultK            = 4
	DefaultQueryTimeout = 30 * time.Second
	DefaultCacheSize    = 128
)

// Retriever answers semantic queries against the current snapshot.
// The snapshot is swapped atomically on Reload; a search always runs
// against the snapshot that was current when it started.
type Retriever struct {
	store    driven.SnapshotStore
	embedder driven.EmbeddingService

	defaultK  int
	timeout   time.Duration
	cacheSize int
	cache     *lru.Cache[string, []float32]

	// loadMu serialises Open, Reload and Close.
	loadMu   sync.Mutex
	snapshot atomic.Pointer[driven.Snapshot]
}

// RetrieverOption configures the retriever.
type RetrieverOption func(*Retriever)

// WithDefaultK sets the number of hits returned when k is not positive.
func WithDefaultK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.defaultK = k
		}
	}
}

// WithQueryTimeout sets the deadline applied to each search.
func WithQueryTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCacheSize sets how many query embeddings are cached. Zero disables it.
func WithCacheSize(n int) RetrieverOption {
	return func(r *Retriever) {
		if n >= 0 {
			r.cacheSize = n
		}
	}
}

// NewRetriever creates a retriever. Call Open before searching.
func NewRetriever(store driven.SnapshotStore, embedder driven.EmbeddingService, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:     store,
		embedder:  embedder,
		defaultK:  DefaultK,
		timeout:   DefaultQueryTimeout,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		r.cache, _ = lru.New[string, []float32](r.cacheSize)
	}
	return r
}

// Open loads the current snapshot. It is a no-op when already open.
func (r *Retriever) Open(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.snapshot.Load() != nil {
		return nil
	}
	snap, err := r.store.Open(ctx)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	r.checkModel(snap)
	r.snapshot.Store(snap)
	logger.Info("Loaded snapshot %s (%d chunks)", snap.Manifest.Version, snap.Index.Len())
	return nil
}

// checkModel warns when queries would be embedded by a different model than
// the snapshot vectors. Equal dimensions do not imply a shared vector space.
func (r *Retriever) checkModel(snap *driven.Snapshot) {
	if r.embedder == nil {
		return
	}
	built, current := snap.Manifest.Model, r.embedder.ModelName()
	if built == "" || current == "" || built == current {
		return
	}
	logger.Warn("snapshot %s was built with %s but queries use %s; rebuild the index or switch models",
		snap.Manifest.Version, built, current)
}

// Reload loads the newest snapshot and swaps it in.
// The replaced snapshot is left to the garbage collector so searches that
// already hold it can finish.
func (r *Retriever) Reload(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	snap, err := r.store.Open(ctx)
	if err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	r.checkModel(snap)
	old := r.snapshot.Swap(snap)
	if old != nil && old.Manifest.Version != snap.Manifest.Version {
		logger.Info("Swapped snapshot %s -> %s", old.Manifest.Version, snap.Manifest.Version)
	}
	return nil
}

// Close releases the loaded snapshot.
func (r *Retriever) Close() error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	snap := r.snapshot.Swap(nil)
	if snap == nil {
		return nil
	}
	return snap.Index.Close()
}

// Version returns the loaded snapshot version, or "" when not open.
func (r *Retriever) Version() string {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.Manifest.Version
	}
	return ""
}

// Manifest returns the manifest of the loaded snapshot.
func (r *Retriever) Manifest() (domain.IndexManifest, bool) {
	snap := r.snapshot.Load()
	if snap == nil {
		return domain.IndexManifest{}, false
	}
	return snap.Manifest, true
}

// Search returns up to k hits ordered by non-decreasing distance.
// An empty query returns no hits. A k that is not positive uses the default;
// a k above the snapshot size is clamped to it.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchHit{}, nil
	}
	if k <= 0 {
		k = r.defaultK
	}

	snap := r.snapshot.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: call Open before Search", domain.ErrIndexNotLoaded)
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	k = min(k, snap.Index.Len())
	if k == 0 {
		return []domain.SearchHit{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vhits, err := snap.Index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search snapshot %s: %w", snap.Manifest.Version, err)
	}

	hits := make([]domain.SearchHit, 0, len(vhits))
	for _, vh := range vhits {
		if vh.Position == driven.NoMatch {
			continue
		}
		hits = append(hits, resolveHit(snap, vh))
	}
	logger.Debug("Query %q: %d hits from snapshot %s", query, len(hits), snap.Manifest.Version)
	return hits, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.cache != nil {
		if vec, ok := r.cache.Get(query); ok {
			return vec, nil
		}
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Add(query, vec)
	}
	return vec, nil
}

// resolveHit joins an index position with the side tables. A position
// outside either table produces an Unresolved hit instead of an error.
func resolveHit(snap *driven.Snapshot, vh driven.VectorHit) domain.SearchHit {
	hit := domain.SearchHit{
		Position: vh.Position,
		Distance: vh.Distance,
	}
	if vh.Position < 0 || vh.Position >= len(snap.Texts) || vh.Position >= len(snap.Metadata) {
		logger.Warn("position %d outside side tables of snapshot %s (%d texts, %d metadata)",
			vh.Position, snap.Manifest.Version, len(snap.Texts), len(snap.Metadata))
		hit.Unresolved = true
		return hit
	}
	hit.Text = snap.Texts[vh.Position]
	hit.Metadata = snap.Metadata[vh.Position]
	return hit
}
