package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// mockAIValidator records the settings it was asked to check.
type mockAIValidator struct {
	embedErr  error
	llmErr    error
	lastEmbed *domain.EmbeddingSettings
	lastLLM   *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	m.lastEmbed = cfg
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(_ context.Context, cfg *domain.LLMSettings) error {
	m.lastLLM = cfg
	return m.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRetrievalSettings(), settings)
	assert.Equal(t, ":memory:", service.Path())
}

func TestSettingsService_Save_RejectsInvalid(t *testing.T) {
	store := memory.NewSettingsStore()
	service := NewSettingsService(store, nil)
	settings := domain.DefaultRetrievalSettings()
	settings.Chunking.Overlap = settings.Chunking.ChunkSize

	err := service.Save(settings)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, store.Saves())
}

func TestSettingsService_Save_StoreFailure(t *testing.T) {
	store := memory.NewSettingsStore()
	store.FailSaves(errBoom)
	service := NewSettingsService(store, nil)

	err := service.Save(domain.DefaultRetrievalSettings())

	assert.ErrorIs(t, err, errBoom)
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434/v1", settings.Embedding.BaseURL)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	store := memory.NewSettingsStore()
	service := NewSettingsService(store, nil)
	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, 2, store.Saves())
}

func TestSettingsService_SetEmbeddingProvider_ClearsDimensionOverride(t *testing.T) {
	store := memory.NewSettingsStore()
	settings := domain.DefaultRetrievalSettings()
	settings.Embedding.Dimensions = 256
	require.NoError(t, store.Save(settings))
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Zero(t, got.Embedding.Dimensions)
	assert.Equal(t, "text-embedding-3-small", got.Embedding.Model)
}

func TestSettingsService_SetProvider_Errors(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)

	tests := []struct {
		name string
		err  error
	}{
		{"embedding invalid provider", service.SetEmbeddingProvider("cohere", "", "")},
		{"embedding missing key", service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")},
		{"llm invalid provider", service.SetLLMProvider("anthropic", "", "key")},
		{"llm missing key", service.SetLLMProvider(domain.AIProviderOpenAI, "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", settings.LLM.BaseURL)
}

func TestSettingsService_Disable(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)
	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-a"))
	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk-b"))

	require.NoError(t, service.DisableEmbedding())
	require.NoError(t, service.DisableLLM())

	settings, err := service.Get()
	require.NoError(t, err)
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
	assert.Empty(t, settings.Embedding.APIKey)
	assert.Empty(t, settings.LLM.APIKey)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewSettingsStore(), nil)
	assert.NoError(t, service.Validate())
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	ctx := context.Background()

	t.Run("without validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewSettingsStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig(ctx))
		assert.NoError(t, service.ValidateLLMConfig(ctx))
	})

	t.Run("delegates current settings", func(t *testing.T) {
		validator := &mockAIValidator{llmErr: errors.New("connection refused")}
		service := NewSettingsService(memory.NewSettingsStore(), validator)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		require.NoError(t, service.ValidateEmbeddingConfig(ctx))
		require.NotNil(t, validator.lastEmbed)
		assert.Equal(t, domain.AIProviderOllama, validator.lastEmbed.Provider)

		assert.EqualError(t, service.ValidateLLMConfig(ctx), "connection refused")
		require.NotNil(t, validator.lastLLM)
	})
}
