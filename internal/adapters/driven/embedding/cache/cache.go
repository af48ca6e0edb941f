// Package cache provides an LRU caching decorator for embedding services.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/metrics"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves repeated texts from memory and forwards the rest
// to the wrapped service. Entries are keyed by model and text hash.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache *lru.Cache[string, []float32]
}

// New wraps inner with a cache of size entries.
func New(inner driven.EmbeddingService, size int) (*EmbeddingService, error) {
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &EmbeddingService{inner: inner, cache: c}, nil
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text or embeds and caches it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if v, ok := s.cache.Get(key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return slices.Clone(v), nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	v, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, slices.Clone(v))
	return v, nil
}

// EmbedBatch embeds only the texts missing from the cache, in one call to
// the wrapped service, and returns vectors in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var (
		missing []string
		slots   []int
	)
	for i, text := range texts {
		keys[i] = s.key(text)
		if v, ok := s.cache.Get(keys[i]); ok {
			out[i] = slices.Clone(v)
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("hit").Add(float64(len(texts) - len(missing)))
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Add(float64(len(missing)))

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := s.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedding cache: got %d vectors for %d texts", len(vectors), len(missing))
	}
	for j, v := range vectors {
		i := slots[j]
		out[i] = v
		s.cache.Add(keys[i], slices.Clone(v))
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

// Dimensions returns the wrapped service's dimension.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}
