package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func testDocument(id, source string, chunkCount int) (*domain.Document, []domain.Chunk) {
	doc := &domain.Document{ID: id, SourceName: source, Text: "text of " + id}
	chunks := make([]domain.Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(id, i),
			DocumentID: id,
			SourceName: source,
			Index:      i,
			Text:       "chunk text",
		}
	}
	return doc, chunks
}

func TestNewCorpusStore(t *testing.T) {
	store := NewCorpusStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestCorpusStore_SaveDocument_Success(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	doc, chunks := testDocument("doc-1", "notes.txt", 2)

	require.NoError(t, store.SaveDocument(ctx, doc, chunks))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", saved.SourceName)

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCorpusStore_SaveDocument_ReplacesChunks(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	doc, chunks := testDocument("doc-1", "notes.txt", 3)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))

	require.NoError(t, store.SaveDocument(ctx, doc, chunks[:1]))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCorpusStore_SaveDocument_Invalid(t *testing.T) {
	store := NewCorpusStore()
	err := store.SaveDocument(context.Background(), &domain.Document{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusStore_GetDocument_NotFound(t *testing.T) {
	_, err := NewCorpusStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorpusStore_GetChunk(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	doc, chunks := testDocument("doc-1", "notes.txt", 2)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))

	chunk, err := store.GetChunk(ctx, chunks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.Index)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorpusStore_AllChunks_OrderedByID(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	for _, id := range []string{"ccc", "aaa", "bbb"} {
		doc, chunks := testDocument(id, id+".txt", 2)
		require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	}

	all, err := store.AllChunks(ctx)

	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestCorpusStore_ListDocuments_OrderedBySource(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	for _, src := range []string{"b.txt", "a.txt", "c.txt"} {
		doc, chunks := testDocument("id-"+src, src, 1)
		require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	}

	docs, err := store.ListDocuments(ctx)

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.txt", docs[0].SourceName)
	assert.Equal(t, "c.txt", docs[2].SourceName)
}

func TestCorpusStore_DeleteSource(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	doc1, chunks1 := testDocument("doc-1", "notes.txt", 2)
	doc2, chunks2 := testDocument("doc-2", "other.txt", 1)
	require.NoError(t, store.SaveDocument(ctx, doc1, chunks1))
	require.NoError(t, store.SaveDocument(ctx, doc2, chunks2))

	removed, err := store.DeleteSource(ctx, "notes.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{chunks1[0].ID, chunks1[1].ID}, removed)
	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	removed, err = store.DeleteSource(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestCorpusStore_DeleteDocument(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()
	doc, chunks := testDocument("doc-1", "notes.txt", 2)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCorpusStore_ConcurrentAccess(t *testing.T) {
	store := NewCorpusStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, chunks := testDocument(domain.ChunkID("doc", i), "notes.txt", 2)
			_ = store.SaveDocument(ctx, doc, chunks)
			_, _ = store.AllChunks(ctx)
		}(i)
	}
	wg.Wait()

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 40)
}
