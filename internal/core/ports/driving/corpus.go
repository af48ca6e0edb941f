package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// IngestSummary reports a batch ingestion.
type IngestSummary struct {
	Documents []domain.Document
	Chunks    int
	Failed    map[string]error
}

// CorpusService manages the documents the engine indexes.
type CorpusService interface {
	// AddDocument ingests extracted text under a source name.
	AddDocument(ctx context.Context, sourceName, text string) (*domain.Document, []domain.Chunk, error)

	// AddFile ingests one text file from disk under its base name.
	AddFile(ctx context.Context, path string) (*domain.Document, []domain.Chunk, error)

	// AddFiles ingests text files from disk, continuing past failures.
	AddFiles(ctx context.Context, paths []string) (IngestSummary, error)

	// RemoveSource deletes all documents of a source.
	RemoveSource(ctx context.Context, sourceName string) (int, error)

	// GetDocument returns one ingested document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the ingested documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
