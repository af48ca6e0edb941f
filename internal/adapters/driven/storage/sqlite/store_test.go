package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "studymate-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testDocument builds a document with n chunks.
func testDocument(source, text string, n int) (*domain.Document, []domain.Chunk) {
	doc := &domain.Document{
		ID:         domain.DocumentID(text),
		SourceName: source,
		URI:        "/notes/" + source,
		Title:      source,
		Text:       text,
		Pages:      []domain.PageBoundary{{Page: 1, Offset: 0}, {Page: 2, Offset: 10}},
		PageCount:  2,
		WordCount:  3,
		CharCount:  len(text),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:          domain.ChunkID(doc.ID, i),
			DocumentID:  doc.ID,
			SourceName:  source,
			Index:       i,
			Text:        text,
			StartOffset: i * 5,
			EndOffset:   i*5 + len(text),
			WordCount:   3,
			CharCount:   len(text),
			PageNumber:  i + 1,
		}
	}
	return doc, chunks
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, dbFile, filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	doc, chunks := testDocument("a.txt", "alpha beta gamma", 2)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc, chunks := testDocument("lecture.txt", "alpha beta gamma", 3)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.SourceName, got.SourceName)
	assert.Equal(t, doc.URI, got.URI)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Pages, got.Pages)
	assert.Equal(t, doc.PageCount, got.PageCount)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))

	gotChunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, chunks, gotChunks)

	chunk, err := store.GetChunk(ctx, chunks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, chunks[1], *chunk)
}

func TestStore_SaveDocument_ReplacesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc, chunks := testDocument("a.txt", "alpha beta gamma", 3)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	require.NoError(t, store.SaveDocument(ctx, doc, chunks[:1]))

	got, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_SaveDocument_InvalidInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.SaveDocument(context.Background(), &domain.Document{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	err = store.SaveDocument(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestStore_ListDocuments_Ordered(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, name := range []string{"zebra.txt", "apple.txt", "mango.txt"} {
		doc, chunks := testDocument(name, "text of "+name, 1)
		require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	}

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "apple.txt", docs[0].SourceName)
	assert.Equal(t, "mango.txt", docs[1].SourceName)
	assert.Equal(t, "zebra.txt", docs[2].SourceName)
}

func TestStore_ListDocuments_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestStore_AllChunks_OrderedByID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	docA, chunksA := testDocument("a.txt", "first document text", 2)
	docB, chunksB := testDocument("b.txt", "second document text", 2)
	require.NoError(t, store.SaveDocument(ctx, docB, chunksB))
	require.NoError(t, store.SaveDocument(ctx, docA, chunksA))

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc, chunks := testDocument("a.txt", "alpha beta gamma", 2)
	require.NoError(t, store.SaveDocument(ctx, doc, chunks))
	require.NoError(t, store.DeleteDocument(ctx, doc.ID))

	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteSource(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	docA, chunksA := testDocument("a.txt", "alpha beta gamma", 2)
	docB, chunksB := testDocument("b.txt", "delta epsilon zeta", 1)
	require.NoError(t, store.SaveDocument(ctx, docA, chunksA))
	require.NoError(t, store.SaveDocument(ctx, docB, chunksB))

	removed, err := store.DeleteSource(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{chunksA[0].ID, chunksA[1].ID}, removed)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.txt", docs[0].SourceName)

	removed, err = store.DeleteSource(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestStore_CancelledContext(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, chunks := testDocument("a.txt", "alpha beta gamma", 1)
	assert.Error(t, store.SaveDocument(ctx, doc, chunks))
}
