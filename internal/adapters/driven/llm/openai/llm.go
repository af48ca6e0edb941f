// Package openai provides an LLM service adapter for OpenAI-compatible chat
// completion APIs, including Ollama's /v1 endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/studymate/internal/adapters/driven/aiclient"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Config holds configuration for the LLM service.
type Config struct {
	aiclient.Config

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string
}

// LLMService generates text through the chat completions endpoint.
type LLMService struct {
	client *aiclient.Client
	model  string
}

// NewLLMService creates a new LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &LLMService{
		client: aiclient.New(cfg.Config),
		model:  cfg.Model,
	}
}

// Generate produces a completion for prompt, with opts.System as the
// system message when set.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}

	var resp openai.ChatCompletionResponse
	err := s.client.Do(ctx, "generate", func(ctx context.Context) error {
		r, err := s.client.API().CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("openai chat: %s: %w", aiclient.Describe(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.API().ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
