package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// conceptGroups are the dimensions of the mock embedding: each dimension
// counts occurrences of the words in its group.
var conceptGroups = [][]string{
	{"cat", "feline", "kitten"},
	{"dog", "puppy", "canine"},
	{"graph", "node", "edge"},
	{"sort", "order", "algorithm"},
	{"tree", "leaf", "root"},
}

func conceptVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(conceptGroups)+1)
	for i, group := range conceptGroups {
		for _, w := range group {
			v[i] += float32(strings.Count(lower, w))
		}
	}
	v[len(conceptGroups)] = 0.01
	return v
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	batchErr error
	queryErr error
	dims     int
	model    string

	// block, when set, holds EmbedBatch until it is closed; started is
	// closed on the first call.
	block   chan struct{}
	started chan struct{}
	once    sync.Once

	batchCalls atomic.Int32
	embedded   atomic.Int32
	queryCalls atomic.Int32
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return conceptVector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	if m.started != nil {
		m.once.Do(func() { close(m.started) })
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.embedded.Add(int32(len(texts)))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = conceptVector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(conceptGroups) + 1
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
	calls      int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockRetrievalService implements driving.RetrievalService with a canned outcome.
type mockRetrievalService struct {
	outcome    domain.RetrievalOutcome
	err        error
	state      domain.IndexState
	vocabulary []string

	staleMarks int
	removed    []string
	removeN    int
	lastOpts   domain.SearchOptions
}

func (m *mockRetrievalService) IndexCorpus(context.Context, []domain.Chunk) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) Rebuild(context.Context) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) RebuildAsync(context.Context) <-chan driving.RebuildResult {
	ch := make(chan driving.RebuildResult, 1)
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

func (m *mockRetrievalService) RemoveSource(_ context.Context, sourceName string) (int, error) {
	m.removed = append(m.removed, sourceName)
	if m.removeN == 0 {
		return 0, domain.ErrNotFound
	}
	return m.removeN, nil
}

func (m *mockRetrievalService) MarkStale() { m.staleMarks++ }

func (m *mockRetrievalService) State() domain.IndexState { return m.state }

func (m *mockRetrievalService) Handle() domain.IndexHandle {
	return domain.IndexHandle{State: m.state}
}

func (m *mockRetrievalService) Stats() domain.IndexStats {
	return domain.IndexStats{State: m.state}
}

func (m *mockRetrievalService) Debug(question string) domain.QueryDebug {
	return domain.QueryDebug{Query: question, VocabularySample: m.vocabulary}
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(string) (string, error) { return m.prompt, m.err }

func (m *mockPromptStore) Reload() {}

// errStore wraps a store and fails selected operations.
type errStore struct {
	driven.CorpusStore
	saveErr   error
	deleteErr error
}

func (s *errStore) SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.CorpusStore.SaveDocument(ctx, doc, chunks)
}

func (s *errStore) DeleteDocument(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.CorpusStore.DeleteDocument(ctx, id)
}

var errBoom = errors.New("boom")
