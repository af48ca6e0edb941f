package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages persisted engine settings.
type SettingsService struct {
	store       driven.SettingsStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service. aiValidator may be nil,
// in which case provider checks always pass.
func NewSettingsService(store driven.SettingsStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		store:       store,
		aiValidator: aiValidator,
	}
}

// Get retrieves the current settings.
func (s *SettingsService) Get() (domain.RetrievalSettings, error) {
	return s.store.Load()
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings domain.RetrievalSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	e := &settings.Embedding
	if e.Provider != provider {
		e.BaseURL = ""
	}
	e.Provider = provider
	e.Model = model
	if e.Model == "" {
		e.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() && e.BaseURL == "" {
		e.BaseURL = provider.DefaultBaseURL()
	}
	e.APIKey = apiKey

	// A dimension override belongs to the previous model.
	e.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	l := &settings.LLM
	if l.Provider != provider {
		l.BaseURL = ""
	}
	l.Provider = provider
	l.Model = model
	if l.Model == "" {
		l.Model = domain.DefaultLLMModels()[provider]
	}
	if provider.IsLocal() && l.BaseURL == "" {
		l.BaseURL = provider.DefaultBaseURL()
	}
	l.APIKey = apiKey

	return s.Save(settings)
}

// DisableEmbedding clears the embedding provider.
func (s *SettingsService) DisableEmbedding() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Embedding.Provider = domain.AIProviderNone
	settings.Embedding.APIKey = ""
	settings.Embedding.BaseURL = ""
	return s.Save(settings)
}

// DisableLLM clears the LLM provider.
func (s *SettingsService) DisableLLM() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.LLM.Provider = domain.AIProviderNone
	settings.LLM.APIKey = ""
	settings.LLM.BaseURL = ""
	return s.Save(settings)
}

// Validate checks the stored settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// Path returns where settings are stored.
func (s *SettingsService) Path() string {
	return s.store.Path()
}
