package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// CorpusService ingests extracted text: it normalises it, runs the
// post-processing pipeline and stores the document with its chunks.
// Every successful change marks the retrieval index stale.
type CorpusService struct {
	store      driven.CorpusStore
	normaliser driven.Normaliser
	pipeline   driven.PostProcessorPipeline
	retrieval  driving.RetrievalService
}

// NewCorpusService creates a new corpus service.
func NewCorpusService(
	store driven.CorpusStore,
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	retrieval driving.RetrievalService,
) *CorpusService {
	return &CorpusService{
		store:      store,
		normaliser: normaliser,
		pipeline:   pipeline,
		retrieval:  retrieval,
	}
}

// AddDocument ingests text under a source name. Documents previously
// stored under the same source name are replaced.
func (s *CorpusService) AddDocument(
	ctx context.Context, sourceName, text string,
) (*domain.Document, []domain.Chunk, error) {
	return s.add(ctx, &driven.RawText{SourceName: sourceName, URI: sourceName, Content: []byte(text)})
}

// AddFile reads a text file and ingests it under its base name.
func (s *CorpusService) AddFile(ctx context.Context, path string) (*domain.Document, []domain.Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.add(ctx, &driven.RawText{SourceName: filepath.Base(path), URI: path, Content: content})
}

func (s *CorpusService) add(ctx context.Context, raw *driven.RawText) (*domain.Document, []domain.Chunk, error) {
	if strings.TrimSpace(raw.SourceName) == "" {
		return nil, nil, fmt.Errorf("%w: empty source name", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(string(raw.Content)) == "" {
		return nil, nil, fmt.Errorf("%w: %s has no text", domain.ErrInvalidInput, raw.SourceName)
	}

	logger.Debug("Ingesting %s (%d bytes)", raw.SourceName, len(raw.Content))

	doc, err := s.normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("normalise %s: %w", raw.SourceName, err)
	}
	if doc.Text == "" {
		return nil, nil, fmt.Errorf("%w: %s has no text after cleaning", domain.ErrInvalidInput, raw.SourceName)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("process %s: %w", raw.SourceName, err)
	}

	if err := s.checkDuplicate(ctx, doc); err != nil {
		return nil, nil, err
	}
	if err := s.store.SaveDocument(ctx, doc, chunks); err != nil {
		return nil, nil, fmt.Errorf("save %s: %w", raw.SourceName, err)
	}
	err = s.replaceSource(ctx, doc)
	if s.retrieval != nil {
		s.retrieval.MarkStale()
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Added %s: %d words, %d chunks", doc.SourceName, doc.WordCount, len(chunks))
	return doc, chunks, nil
}

// checkDuplicate rejects text already stored under another source name.
// Document ids are content hashes, so saving it would relabel that document.
func (s *CorpusService) checkDuplicate(ctx context.Context, doc *domain.Document) error {
	existing, err := s.store.GetDocument(ctx, doc.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("look up %s: %w", doc.SourceName, err)
	case existing.SourceName != doc.SourceName:
		return fmt.Errorf("%w: %s has the same text as %s", domain.ErrInvalidInput, doc.SourceName, existing.SourceName)
	}
	return nil
}

// replaceSource drops other documents stored under the document's source
// name so an edited file does not leave its old text behind. It runs after
// the new document is saved.
func (s *CorpusService) replaceSource(ctx context.Context, doc *domain.Document) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		if docs[i].SourceName != doc.SourceName || docs[i].ID == doc.ID {
			continue
		}
		logger.Debug("Replacing %s (document %s)", docs[i].SourceName, docs[i].ID)
		if err := s.store.DeleteDocument(ctx, docs[i].ID); err != nil {
			return fmt.Errorf("replace %s: %w", doc.SourceName, err)
		}
	}
	return nil
}

// AddFiles ingests each file in turn. Failures are recorded per path and
// joined into the returned error; the remaining files are still ingested.
// Cancellation stops the batch.
func (s *CorpusService) AddFiles(ctx context.Context, paths []string) (driving.IngestSummary, error) {
	summary := driving.IngestSummary{Failed: make(map[string]error)}

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		doc, chunks, err := s.AddFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			summary.Failed[path] = err
			errs = append(errs, err)
			continue
		}
		summary.Documents = append(summary.Documents, *doc)
		summary.Chunks += len(chunks)
	}

	return summary, errors.Join(errs...)
}

// RemoveSource deletes every document of a source and prunes the index.
func (s *CorpusService) RemoveSource(ctx context.Context, sourceName string) (int, error) {
	if s.retrieval != nil {
		return s.retrieval.RemoveSource(ctx, sourceName)
	}
	ids, err := s.store.DeleteSource(ctx, sourceName)
	if err != nil {
		return 0, fmt.Errorf("remove source %s: %w", sourceName, err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: source %q", domain.ErrNotFound, sourceName)
	}
	return len(ids), nil
}

// GetDocument returns one ingested document by ID.
func (s *CorpusService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// ListDocuments returns the ingested documents ordered by source name.
func (s *CorpusService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}
