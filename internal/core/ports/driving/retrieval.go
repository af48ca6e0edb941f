package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// RebuildResult reports the outcome of an asynchronous rebuild.
type RebuildResult struct {
	Handle domain.IndexHandle
	Err    error
}

// RetrievalService is the facade applications call to index and query a corpus.
type RetrievalService interface {
	// IndexCorpus builds a new snapshot from chunks and publishes it atomically.
	IndexCorpus(ctx context.Context, chunks []domain.Chunk) (domain.IndexHandle, error)

	// Rebuild indexes every chunk in the corpus store.
	Rebuild(ctx context.Context) (domain.IndexHandle, error)

	// RebuildAsync runs Rebuild on a background goroutine.
	RebuildAsync(ctx context.Context) <-chan RebuildResult

	// Search ranks chunks for a question. An engine with nothing indexed
	// returns an empty outcome, not an error.
	Search(ctx context.Context, question string, opts domain.SearchOptions) (domain.RetrievalOutcome, error)

	// SaveIndex writes the live snapshot to path.
	SaveIndex(ctx context.Context, path string) error

	// LoadIndex replaces the live snapshot with the one stored at path.
	LoadIndex(ctx context.Context, path string) (domain.IndexHandle, error)

	// RemoveSource deletes a source from the corpus and prunes it from the
	// live snapshot. It returns the number of chunks removed.
	RemoveSource(ctx context.Context, sourceName string) (int, error)

	// MarkStale records that the corpus changed after the last build.
	MarkStale()

	// State returns the lifecycle state.
	State() domain.IndexState

	// Handle describes the live snapshot.
	Handle() domain.IndexHandle

	// Stats summarises the live snapshot.
	Stats() domain.IndexStats

	// Debug explains how a question is tokenised against the vocabulary.
	Debug(question string) domain.QueryDebug
}
