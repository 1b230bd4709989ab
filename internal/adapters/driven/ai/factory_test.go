package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantErr   error
		wantModel string
		wantDims  int
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "anthropic"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrCredentialsMissing,
		},
		{
			name: "openai with key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
		{
			name: "openai dimension override",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderOpenAI,
				APIKey:     "test-key",
				Model:      "text-embedding-3-large",
				Dimensions: 256,
			},
			wantModel: "text-embedding-3-large",
			wantDims:  256,
		},
		{
			name: "ollama needs no key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "all-minilm",
			},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name: "ollama unknown model uses default dimensions",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "custom-model",
			},
			wantModel: "custom-model",
			wantDims:  768,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			defer svc.Close()

			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateEmbeddingService_ExposesBatchLimit(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "test-key",
	})
	require.NoError(t, err)

	bl, ok := svc.(driven.BatchLimiter)
	require.True(t, ok, "wrapped service should expose the provider batch limit")
	assert.Equal(t, 2048, bl.MaxBatchSize())
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/show", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.NoError(t, err)
		assert.NoError(t, svc.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "debtscan settings")
	})

	t.Run("missing credentials", func(t *testing.T) {
		err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
		})
		assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	})
}

func TestResilientConfig(t *testing.T) {
	cfg := resilientConfig(&domain.EmbeddingSettings{MaxRetries: -2, RequestsPerSecond: 3})
	assert.Equal(t, uint64(0), cfg.MaxRetries)
	assert.Equal(t, 3.0, cfg.RateLimit.RequestsPerSecond)
}

func TestUnavailable(t *testing.T) {
	_, createErr := CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
	require.Error(t, createErr)

	svc := Unavailable(createErr)
	ctx := context.Background()

	_, err := svc.Embed(ctx, "total debt")
	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	_, err = svc.EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	assert.ErrorIs(t, svc.Ping(ctx), domain.ErrCredentialsMissing)
	assert.Zero(t, svc.Dimensions())
	assert.Empty(t, svc.ModelName())
	assert.NoError(t, svc.Close())
}
