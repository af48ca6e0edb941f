// Package ai creates the embedding and LLM adapters described by settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/studymate/internal/adapters/driven/aiclient"
	"github.com/custodia-labs/studymate/internal/adapters/driven/embedding/cache"
	openaiembed "github.com/custodia-labs/studymate/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/studymate/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// localAPIKey is sent to providers that do not check keys.
const localAPIKey = "ollama"

// pinger is implemented by adapters that can check connectivity cheaply.
type pinger interface {
	Ping(ctx context.Context) error
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates the configured services. With validate set each service is
// pinged first; a service that cannot be created or reached is left nil
// and reported in Warnings, so the engine runs lexical only or answers
// extractively.
func Init(ctx context.Context, settings domain.RetrievalSettings, validate bool) *InitResult {
	result := &InitResult{}

	embed, err := CreateEmbeddingService(&settings.Embedding)
	if err == nil && embed != nil && validate {
		err = ping(ctx, embed)
	}
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v: %v; searching without vectors", domain.ErrEmbeddingUnavailable, err))
		if embed != nil {
			_ = embed.Close()
		}
	} else {
		result.EmbeddingService = embed
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err == nil && llm != nil && validate {
		err = ping(ctx, llm)
	}
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v: %v; answering extractively", domain.ErrLLMUnavailable, err))
		if llm != nil {
			_ = llm.Close()
		}
	} else {
		result.LLMService = llm
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// ping checks connectivity of services that support it.
func ping(ctx context.Context, svc any) error {
	p, ok := svc.(pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings,
// wrapped in a cache when CacheSize is positive. Returns nil if the
// provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Provider]
	}

	svc := openaiembed.NewEmbeddingService(openaiembed.Config{
		Config:     clientConfig(settings.Provider, settings.APIKey, settings.BaseURL, settings.RequestsPerSecond, settings.MaxRetries),
		Model:      model,
		Dimensions: settings.Dimensions,
	})

	if settings.CacheSize <= 0 {
		return svc, nil
	}
	cached, err := cache.New(svc, settings.CacheSize)
	if err != nil {
		return nil, err
	}
	return &pingableCache{EmbeddingService: cached, ping: svc.Ping}, nil
}

// pingableCache keeps the wrapped adapter's Ping reachable through the cache.
type pingableCache struct {
	*cache.EmbeddingService
	ping func(ctx context.Context) error
}

func (c *pingableCache) Ping(ctx context.Context) error {
	return c.ping(ctx)
}

// CreateLLMService creates the LLM service for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}

	return openaillm.NewLLMService(openaillm.Config{
		Config: clientConfig(settings.Provider, settings.APIKey, settings.BaseURL, 0, settings.MaxRetries),
		Model:  model,
	}), nil
}

func clientConfig(provider domain.AIProvider, apiKey, baseURL string, rps float64, retries int) aiclient.Config {
	if baseURL == "" {
		baseURL = provider.DefaultBaseURL()
	}
	if apiKey == "" && !provider.RequiresAPIKey() {
		apiKey = localAPIKey
	}
	return aiclient.Config{
		APIKey:            apiKey,
		BaseURL:           baseURL,
		RequestsPerSecond: rps,
		MaxRetries:        retries,
	}
}
