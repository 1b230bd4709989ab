// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/debtscan/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/debtscan/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/debtscan/internal/adapters/driven/embedding/resilient"
	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'debtscan settings' to review the configuration"

// CreateEmbeddingService creates the embedding service for settings, wrapped
// with retries and rate limiting.
// A provider that needs an API key but has none yields domain.ErrCredentialsMissing.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidInput)
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported embedding provider %q. %s",
			domain.ErrInvalidInput, settings.Provider, settingsHint)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires an API key; set OPENAI_API_KEY or add it to .env",
			domain.ErrCredentialsMissing, settings.Provider)
	}

	var (
		raw driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		raw = createOllamaEmbedding(settings)
	case domain.AIProviderOpenAI:
		raw, err = createOpenAIEmbedding(settings)
	}
	if err != nil {
		return nil, err
	}

	return resilient.New(raw, resilientConfig(settings)), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s",
			domain.ErrEmbeddingUnavailable, err, settingsHint)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it once.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

func resilientConfig(settings *domain.EmbeddingSettings) resilient.Config {
	retries := settings.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return resilient.Config{
		MaxRetries: uint64(retries),
		RateLimit: resilient.RateLimitConfig{
			RequestsPerSecond: settings.RequestsPerSecond,
			BurstSize:         1,
		},
	}
}

// modelDimensions resolves the vector size: explicit override, then known model.
func modelDimensions(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

// createOllamaEmbedding creates an Ollama embedding service.
// Vector sizes are only enforced for models with known dimensions.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:      settings.BaseURL,
		Model:        settings.Model,
		Timeout:      settings.Timeout,
		Dimensions:   modelDimensions(settings),
		MaxBatchSize: settings.BatchSize,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: modelDimensions(settings),
	})
}
