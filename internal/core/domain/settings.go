package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size when positive.
	Dimensions int

	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Concurrency is the number of batches embedded in parallel.
	Concurrency int

	// MaxRetries bounds retries of transient provider failures.
	MaxRetries int

	// RequestsPerSecond caps the request rate. Zero disables the limiter.
	RequestsPerSecond float64

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the target overlap between consecutive chunks of a page.
	Overlap int
}

// IndexSettings holds snapshot storage configuration.
type IndexSettings struct {
	// Dir is the snapshot directory.
	Dir string

	// Keep is the number of snapshot versions retained by prune.
	Keep int

	// CatalogDir is where the build catalog database lives. Empty uses the
	// configuration directory.
	CatalogDir string
}

// RetrievalSettings holds semantic retriever configuration.
type RetrievalSettings struct {
	// K is the default number of hits per search.
	K int

	// QueryTimeout is the deadline applied to each search.
	QueryTimeout time.Duration

	// CacheSize is the number of query embeddings kept in memory.
	CacheSize int
}

// ExtractionSettings holds fact extractor configuration.
type ExtractionSettings struct {
	// Candidates is the number of chunks retrieved for classification.
	Candidates int

	// Window is the number of characters scanned after a label.
	Window int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	Chunking   ChunkingSettings
	Index      IndexSettings
	Retrieval  RetrievalSettings
	Extraction ExtractionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The API key is never defaulted; it comes from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:    AIProviderOpenAI,
			Model:       "text-embedding-3-small",
			BatchSize:   64,
			Concurrency: 1,
			MaxRetries:  3,
			Timeout:     60 * time.Second,
		},
		Chunking: ChunkingSettings{
			Size:    1200,
			Overlap: 150,
		},
		Index: IndexSettings{
			Dir:  "data/index",
			Keep: 3,
		},
		Retrieval: RetrievalSettings{
			K:            4,
			QueryTimeout: 30 * time.Second,
			CacheSize:    128,
		},
		Extraction: ExtractionSettings{
			Candidates: 30,
			Window:     220,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
