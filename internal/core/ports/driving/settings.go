package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// SettingsService reads and updates the persisted engine settings.
// Changes take effect the next time the engine is constructed.
type SettingsService interface {
	// Get returns the current settings.
	Get() (domain.RetrievalSettings, error)

	// Save validates and persists settings.
	Save(settings domain.RetrievalSettings) error

	// SetEmbeddingProvider configures the embedding provider. An empty
	// model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider. An empty model selects
	// the provider default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// DisableEmbedding turns vector search off.
	DisableEmbedding() error

	// DisableLLM turns answer generation off.
	DisableLLM() error

	// Validate checks the stored settings.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig(ctx context.Context) error

	// Path returns where settings are stored.
	Path() string
}
