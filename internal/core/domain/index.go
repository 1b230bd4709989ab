package domain

import "time"

// IndexManifest describes one published index snapshot.
type IndexManifest struct {
	// Version identifies the snapshot inside the index directory.
	Version string `json:"version"`

	// CreatedAt is when the snapshot was built.
	CreatedAt time.Time `json:"created_at"`

	// Model is the embedding model the vectors were produced with.
	Model string `json:"model"`

	// Dimensions is the vector size.
	Dimensions int `json:"dimensions"`

	// ChunkCount is the number of vectors, texts and metadata entries.
	ChunkCount int `json:"chunk_count"`

	// Source is the chunk file or document the snapshot was built from.
	Source string `json:"source,omitempty"`
}
