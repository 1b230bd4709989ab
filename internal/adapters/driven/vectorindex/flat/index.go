// Package flat provides an exact nearest neighbour index using a linear scan
// under squared Euclidean distance.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors row-major in insertion order.
// A vector's position is its insertion ordinal. Safe for concurrent use:
// searches share a read lock, Add takes the write lock.
type Index struct {
	mu        sync.RWMutex
	dimension int
	data      []float32
	closed    bool
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	return &Index{dimension: dimension}, nil
}

// Add appends vectors. Every vector must match the index dimension;
// on mismatch nothing is added.
func (idx *Index) Add(ctx context.Context, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, i, len(v), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexClosed
	}
	for _, v := range vectors {
		idx.data = append(idx.data, v...)
	}
	return nil
}

// Search returns the k nearest vectors, nearest first. When the index holds
// fewer than k vectors every stored vector is returned. Equal distances are
// ordered by position.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, domain.ErrIndexClosed
	}

	// Max-heap of the best k so far; the root is the worst kept hit.
	h := &hitHeap{}
	n := len(idx.data) / idx.dimension
	for pos := 0; pos < n; pos++ {
		if pos%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := idx.data[pos*idx.dimension : (pos+1)*idx.dimension]
		hit := driven.VectorHit{Position: pos, Distance: L2DistanceSquared(query, row)}

		if h.Len() < k {
			heap.Push(h, hit)
		} else if worse((*h)[0], hit) {
			(*h)[0] = hit
			heap.Fix(h, 0)
		}
	}

	results := make([]driven.VectorHit, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(driven.VectorHit)
	}
	return results, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.data) / idx.dimension
}

// Dimension returns the vector size accepted by the index.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Close releases the stored vectors. Further calls fail with domain.ErrIndexClosed.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.data = nil
	return nil
}

// worse reports whether a ranks below b.
func worse(a, b driven.VectorHit) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Position > b.Position
}

// hitHeap is a max-heap on distance so the worst kept hit can be evicted.
type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(driven.VectorHit))
}

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
