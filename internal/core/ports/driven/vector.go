package driven

import "context"

// NoMatch marks a hit slot with no stored vector. Indexes that pad short
// results use it; callers skip such hits.
const NoMatch = -1

// VectorIndex provides nearest neighbour search over stored vectors.
// Vectors are addressed by insertion position; position is the join key
// with the text and metadata side tables.
type VectorIndex interface {
	// Add appends vectors in order. Positions continue from Len().
	Add(ctx context.Context, vectors [][]float32) error

	// Search finds the k nearest neighbours to the query vector by
	// squared Euclidean distance. The result never has more than
	// min(k, Len()) real hits; padded slots carry Position NoMatch.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimension returns the vector size accepted by the index.
	Dimension() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the ordinal of the matched vector, or NoMatch.
	Position int

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}
