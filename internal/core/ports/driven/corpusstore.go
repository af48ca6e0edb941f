package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// CorpusStore persists documents and chunks. It is the source of truth
// for chunk text; indexes are derived from it.
type CorpusStore interface {
	// SaveDocument stores a document together with its chunks, replacing
	// any chunks previously stored for the same document.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// AllChunks returns every chunk ordered by chunk ID.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// ListDocuments returns all documents ordered by source name.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteSource removes every document with the given source name and
	// returns the IDs of the removed chunks.
	DeleteSource(ctx context.Context, sourceName string) ([]string, error)

	// Close releases resources.
	Close() error
}
