// Package openai provides an embedding service adapter for OpenAI-compatible
// APIs, including Ollama's /v1 endpoint.
package openai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/studymate/internal/adapters/driven/aiclient"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/metrics"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "text-embedding-3-small"

// Config holds configuration for the embedding service.
type Config struct {
	aiclient.Config

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions overrides the model's default dimension. Only
	// text-embedding-3-* models accept it.
	Dimensions int
}

// EmbeddingService generates embeddings through the embeddings endpoint.
type EmbeddingService struct {
	client *aiclient.Client
	model  string

	// requestDims is sent with each request when the model supports it.
	requestDims int

	// dims is the known dimension, learnt from the first response when
	// the model is not listed.
	dims atomic.Int64
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	s := &EmbeddingService{
		client: aiclient.New(cfg.Config),
		model:  cfg.Model,
	}

	dims := domain.EmbeddingDimensions()[cfg.Model]
	if cfg.Dimensions > 0 && strings.HasPrefix(cfg.Model, "text-embedding-3") {
		s.requestDims = cfg.Dimensions
		dims = cfg.Dimensions
	}
	s.dims.Store(int64(dims))
	return s
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
// Vectors are returned in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(s.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     s.requestDims,
	}

	start := time.Now()
	var resp openai.EmbeddingResponse
	err := s.client.Do(ctx, "embed", func(ctx context.Context) error {
		r, err := s.client.API().CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(s.model, "error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openai embeddings: %s: %w", aiclient.Describe(err), err)
	}
	metrics.EmbeddingRequestDuration.WithLabelValues(s.model).Observe(time.Since(start).Seconds())

	embeddings, err := s.ordered(resp.Data, len(texts))
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(s.model, "ok").Inc()
	return embeddings, nil
}

// ordered places each returned vector at its input index and checks that
// every input got one vector of a consistent size.
func (s *EmbeddingService) ordered(data []openai.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(data), n)
	}

	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n || out[d.Index] != nil {
			return nil, fmt.Errorf("openai embeddings: unexpected index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("openai embeddings: vector %d has %d dimensions, expected %d", i, len(v), dim)
		}
	}
	if known := s.dims.Load(); known == 0 {
		s.dims.CompareAndSwap(0, int64(dim))
	} else if int(known) != dim {
		return nil, fmt.Errorf("openai embeddings: %s returned %d dimensions, expected %d", s.model, dim, known)
	}
	return out, nil
}

// Dimensions returns the embedding vector size, or zero while unknown.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dims.Load())
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.API().ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
