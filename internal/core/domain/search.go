package domain

// SearchHit is a chunk resolved from a nearest-neighbour index position.
type SearchHit struct {
	// Metadata is the chunk provenance from the metadata side table.
	Metadata ChunkMetadata `json:"metadata"`

	// Text is the chunk content from the text side table.
	Text string `json:"text"`

	// Position is the ordinal of the vector inside the index.
	Position int `json:"position"`

	// Distance is the squared Euclidean distance between query and chunk vectors.
	Distance float32 `json:"distance"`

	// Unresolved is true when Position fell outside a side table.
	// Text and Metadata are then empty instead of failing the whole search.
	Unresolved bool `json:"unresolved,omitempty"`
}
