package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Retriever is a searchable index. The hybrid ranker composes over
// whichever retrievers a snapshot provides without inspecting their type.
type Retriever interface {
	// Name identifies the index ("lexical" or "vector").
	Name() string

	// Retrieve returns up to limit candidates whose score exceeds minScore,
	// best first. A limit of zero returns every qualifying candidate.
	Retrieve(ctx context.Context, q domain.Query, limit int, minScore float64) ([]domain.Candidate, error)
}

// TermSource exposes the token statistics of indexed chunks.
type TermSource interface {
	// Terms returns the distinct tokens of a chunk and its token count.
	Terms(chunkID string) (terms map[string]struct{}, tokenCount int, ok bool)
}
