package mcp

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	outcome  domain.RetrievalOutcome
	stats    domain.IndexStats
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockRetrievalService) IndexCorpus(context.Context, []domain.Chunk) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) Rebuild(context.Context) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) RebuildAsync(context.Context) <-chan driving.RebuildResult {
	ch := make(chan driving.RebuildResult)
	close(ch)
	return ch
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, opts domain.SearchOptions) (domain.RetrievalOutcome, error) {
	m.lastOpts = opts
	return m.outcome, m.err
}

func (m *mockRetrievalService) SaveIndex(context.Context, string) error { return nil }

func (m *mockRetrievalService) LoadIndex(context.Context, string) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) RemoveSource(context.Context, string) (int, error) { return 0, nil }

func (m *mockRetrievalService) MarkStale() {}

func (m *mockRetrievalService) State() domain.IndexState { return m.stats.State }

func (m *mockRetrievalService) Handle() domain.IndexHandle { return domain.IndexHandle{} }

func (m *mockRetrievalService) Stats() domain.IndexStats { return m.stats }

func (m *mockRetrievalService) Debug(string) domain.QueryDebug { return domain.QueryDebug{} }

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts domain.AskOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

func (m *mockAnswerService) SuggestQuestions(int) []string { return nil }

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	documents []domain.Document
	err       error
}

func (m *mockCorpusService) AddDocument(context.Context, string, string) (*domain.Document, []domain.Chunk, error) {
	return nil, nil, m.err
}

func (m *mockCorpusService) AddFile(context.Context, string) (*domain.Document, []domain.Chunk, error) {
	return nil, nil, m.err
}

func (m *mockCorpusService) AddFiles(context.Context, []string) (driving.IngestSummary, error) {
	return driving.IngestSummary{}, m.err
}

func (m *mockCorpusService) RemoveSource(context.Context, string) (int, error) { return 0, m.err }

func (m *mockCorpusService) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCorpusService) ListDocuments(context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}
