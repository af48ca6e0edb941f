package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// VectorLookup returns a previously computed embedding for a chunk.
type VectorLookup func(chunkID string) ([]float32, bool)

// chunkEmbedder computes chunk embeddings in batches on a bounded pool.
type chunkEmbedder struct {
	service   driven.EmbeddingService
	batchSize int
	workers   int
}

func newChunkEmbedder(service driven.EmbeddingService, batchSize, workers int) *chunkEmbedder {
	if batchSize <= 0 {
		batchSize = 32
	}
	if workers <= 0 {
		workers = 1
	}
	return &chunkEmbedder{service: service, batchSize: batchSize, workers: workers}
}

// embed returns one vector per chunk, in chunk order. Vectors found by
// reuse are not requested again. Any failed batch fails the whole call.
func (e *chunkEmbedder) embed(ctx context.Context, chunks []domain.Chunk, reuse VectorLookup) ([][]float32, error) {
	out := make([][]float32, len(chunks))

	var pending []int
	for i := range chunks {
		if reuse != nil {
			if v, ok := reuse(chunks[i].ID); ok {
				out[i] = v
				continue
			}
		}
		pending = append(pending, i)
	}

	logger.Debug("Embedding %d chunks (%d reused) in batches of %d",
		len(pending), len(chunks)-len(pending), e.batchSize)
	if len(pending) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for start := 0; start < len(pending); start += e.batchSize {
		end := min(start+e.batchSize, len(pending))
		batch := pending[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, idx := range batch {
				texts[j] = chunks[idx].Text
			}

			vectors, err := e.service.EmbedBatch(gctx, texts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil && ctx.Err() != nil {
					return ctxErr
				}
				return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingFailure, e.service.ModelName(), err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: %s returned %d vectors for %d texts",
					domain.ErrEmbeddingFailure, e.service.ModelName(), len(vectors), len(batch))
			}

			for j, idx := range batch {
				out[idx] = vectors[j]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// embedQuery embeds a single question.
func (e *chunkEmbedder) embedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := e.service.Embed(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingFailure, e.service.ModelName(), err)
	}
	return v, nil
}
