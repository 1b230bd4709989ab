package driving

import "github.com/custodia-labs/debtscan/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings. An empty API key is not written.
	Save(settings *domain.AppSettings) error

	// Set stores one setting by its configuration key.
	Set(key string, value string) error

	// SetEmbeddingProvider configures the embedding provider.
	// An empty model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Keys returns the recognised configuration keys.
	Keys() []string
}
