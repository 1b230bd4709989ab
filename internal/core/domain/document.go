package domain

// Page is one physical page of a source document.
// PageNumber is 1-based and matches the printed pagination order.
// An empty Text is valid and denotes a page without extractable text.
type Page struct {
	// SourceID identifies the document the page came from (usually its path).
	SourceID string

	// PageNumber is the 1-based physical page position.
	PageNumber int

	// Text is the raw extracted text of the page.
	Text string
}

// IsBlank reports whether the page carries no text beyond whitespace.
func (p Page) IsBlank() bool {
	for _, r := range p.Text {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			continue
		default:
			return false
		}
	}
	return true
}

// ChunkMetadata is the canonical provenance schema for a chunk.
// Every chunk input format is normalised into this shape at ingestion.
type ChunkMetadata struct {
	// Source is the document the chunk was cut from.
	Source string `json:"source,omitempty"`

	// PageNumber is the 1-based page of the chunk, nil when unknown.
	PageNumber *int `json:"page_number"`

	// ChunkIndex is the 0-based position among chunks of the same page.
	ChunkIndex int `json:"chunk_index"`
}

// Page returns the page number and whether it is known.
func (m ChunkMetadata) Page() (int, bool) {
	if m.PageNumber == nil {
		return 0, false
	}
	return *m.PageNumber, true
}

// PageRef returns a pointer to a copy of n, for populating PageNumber.
func PageRef(n int) *int {
	return &n
}

// Chunk is a bounded slice of exactly one page's text.
// Chunk boundaries never cross page boundaries.
type Chunk struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata carries page provenance.
	Metadata ChunkMetadata `json:"metadata"`
}
