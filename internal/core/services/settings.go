package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvOpenAIKey is the environment variable holding the OpenAI API key.
//
//nolint:gosec // G101: This is a variable name, not a credential.
const EnvOpenAIKey = "OPENAI_API_KEY"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedConcurrency = "embedding.concurrency"
	keyEmbedMaxRetries  = "embedding.max_retries"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyEmbedTimeout     = "embedding.timeout"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyIndexDir         = "index.dir"
	keyIndexKeep        = "index.keep"
	keyCatalogDir       = "catalog.dir"
	keyRetrievalK       = "retrieval.k"
	keyQueryTimeout     = "retrieval.query_timeout"
	keyCacheSize        = "retrieval.cache_size"
	keyCandidates       = "extraction.candidates"
	keyWindow           = "extraction.window"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindProvider
)

// settingKinds lists every recognised key with the type Set parses it as.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedDimensions:  kindInt,
	keyEmbedBatchSize:   kindInt,
	keyEmbedConcurrency: kindInt,
	keyEmbedMaxRetries:  kindInt,
	keyEmbedRPS:         kindFloat,
	keyEmbedTimeout:     kindDuration,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyIndexDir:         kindString,
	keyIndexKeep:        kindInt,
	keyCatalogDir:       kindString,
	keyRetrievalK:       kindInt,
	keyQueryTimeout:     kindDuration,
	keyCacheSize:        kindInt,
	keyCandidates:       kindInt,
	keyWindow:           kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// The API key comes from embedding.api_key, then OPENAI_API_KEY.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // empty selects the provider default
			APIKey:            s.apiKey(),
			Dimensions:        s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			Concurrency:       s.getInt(keyEmbedConcurrency, d.Embedding.Concurrency),
			MaxRetries:        s.getInt(keyEmbedMaxRetries, d.Embedding.MaxRetries),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
			Timeout:           s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Index: domain.IndexSettings{
			Dir:        s.getString(keyIndexDir, d.Index.Dir),
			Keep:       s.getInt(keyIndexKeep, d.Index.Keep),
			CatalogDir: s.getString(keyCatalogDir, d.Index.CatalogDir),
		},
		Retrieval: domain.RetrievalSettings{
			K:            s.getInt(keyRetrievalK, d.Retrieval.K),
			QueryTimeout: s.getDuration(keyQueryTimeout, d.Retrieval.QueryTimeout),
			CacheSize:    s.getInt(keyCacheSize, d.Retrieval.CacheSize),
		},
		Extraction: domain.ExtractionSettings{
			Candidates: s.getInt(keyCandidates, d.Extraction.Candidates),
			Window:     s.getInt(keyWindow, d.Extraction.Window),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedConcurrency, settings.Embedding.Concurrency},
		{keyEmbedMaxRetries, settings.Embedding.MaxRetries},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyIndexDir, settings.Index.Dir},
		{keyIndexKeep, settings.Index.Keep},
		{keyCatalogDir, settings.Index.CatalogDir},
		{keyRetrievalK, settings.Retrieval.K},
		{keyQueryTimeout, settings.Retrieval.QueryTimeout.String()},
		{keyCacheSize, settings.Retrieval.CacheSize},
		{keyCandidates, settings.Extraction.Candidates},
		{keyWindow, settings.Extraction.Window},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys from the environment are never copied into the config file.
	if key := settings.Embedding.APIKey; key != "" && key != s.getenv(EnvOpenAIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrInvalidInput, value)
		}
		parsed = p.String()
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %q", domain.ErrInvalidInput, key, value)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration such as 30s: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = d.String()
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: API key required for %s; set %s or pass a key",
			domain.ErrCredentialsMissing, provider, EnvOpenAIKey)
	}

	settings.Embedding.Provider = provider
	if apiKey != "" {
		settings.Embedding.APIKey = apiKey
	}

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Local providers need a base URL; cloud providers use their default.
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	// A dimension override is tied to the previous model.
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// Keys returns the recognised configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) apiKey() string {
	if key := s.configStore.GetString(keyEmbedAPIKey); key != "" {
		return key
	}
	return s.getenv(EnvOpenAIKey)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if p.IsValid() {
		return p
	}
	return defaultVal
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// getDuration accepts Go duration strings and bare numbers of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	if str, ok := val.(string); ok {
		d, err := time.ParseDuration(str)
		if err != nil || d <= 0 {
			return defaultVal
		}
		return d
	}
	if secs := s.configStore.GetFloat(key); secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultVal
}
