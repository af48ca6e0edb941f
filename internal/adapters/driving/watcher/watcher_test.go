package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

var errBoom = errors.New("boom")

type mockCorpusService struct {
	mu        sync.Mutex
	added     []string
	removed   []string
	addErr    map[string]error
	removeErr error
}

func (m *mockCorpusService) AddDocument(context.Context, string, string) (*domain.Document, []domain.Chunk, error) {
	return nil, nil, nil
}

func (m *mockCorpusService) AddFile(_ context.Context, path string) (*domain.Document, []domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.addErr[path]; err != nil {
		return nil, nil, err
	}
	m.added = append(m.added, path)
	return &domain.Document{SourceName: filepath.Base(path)}, nil, nil
}

func (m *mockCorpusService) AddFiles(context.Context, []string) (driving.IngestSummary, error) {
	return driving.IngestSummary{}, nil
}

func (m *mockCorpusService) RemoveSource(_ context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return 0, m.removeErr
	}
	m.removed = append(m.removed, name)
	return 1, nil
}

func (m *mockCorpusService) GetDocument(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockCorpusService) ListDocuments(context.Context) ([]domain.Document, error) {
	return nil, nil
}

type mockRetrievalService struct {
	rebuilds   int
	rebuildErr error
	saved      []string
	saveErr    error
}

func (m *mockRetrievalService) IndexCorpus(context.Context, []domain.Chunk) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) Rebuild(context.Context) (domain.IndexHandle, error) {
	m.rebuilds++
	return domain.IndexHandle{}, m.rebuildErr
}

func (m *mockRetrievalService) RebuildAsync(context.Context) <-chan driving.RebuildResult {
	ch := make(chan driving.RebuildResult)
	close(ch)
	return ch
}

func (m *mockRetrievalService) Search(context.Context, string, domain.SearchOptions) (domain.RetrievalOutcome, error) {
	return domain.RetrievalOutcome{}, nil
}

func (m *mockRetrievalService) SaveIndex(_ context.Context, path string) error {
	m.saved = append(m.saved, path)
	return m.saveErr
}

func (m *mockRetrievalService) LoadIndex(context.Context, string) (domain.IndexHandle, error) {
	return domain.IndexHandle{}, nil
}

func (m *mockRetrievalService) RemoveSource(context.Context, string) (int, error) { return 0, nil }
func (m *mockRetrievalService) MarkStale()                                        {}
func (m *mockRetrievalService) State() domain.IndexState                          { return domain.IndexStateEmpty }
func (m *mockRetrievalService) Handle() domain.IndexHandle                        { return domain.IndexHandle{} }
func (m *mockRetrievalService) Stats() domain.IndexStats                          { return domain.IndexStats{} }
func (m *mockRetrievalService) Debug(string) domain.QueryDebug                    { return domain.QueryDebug{} }

func textOnly(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func newTestWatcher(t *testing.T, corpus *mockCorpusService, retrieval *mockRetrievalService, cfg Config) *Watcher {
	t.Helper()
	var r driving.RetrievalService
	if retrieval != nil {
		r = retrieval
	}
	w, err := New(corpus, r, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestNew_RequiresCorpus(t *testing.T) {
	_, err := New(nil, nil, Config{})
	assert.ErrorIs(t, err, ErrMissingCorpusService)
}

func TestNew_DefaultDebounce(t *testing.T) {
	w := newTestWatcher(t, &mockCorpusService{}, nil, Config{})
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/path/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestWatcher_HandleEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("content"), 0o600))
	other := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(other, []byte("png"), 0o600))
	hidden := filepath.Join(dir, ".notes.txt")
	require.NoError(t, os.WriteFile(hidden, []byte("content"), 0o600))
	sub := filepath.Join(dir, "week2")
	require.NoError(t, os.Mkdir(sub, 0o700))

	tests := []struct {
		name     string
		path     string
		op       fsnotify.Op
		wantKind ChangeKind
		wantOK   bool
	}{
		{"create file", file, fsnotify.Create, ChangeUpdated, true},
		{"write file", file, fsnotify.Write, ChangeUpdated, true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, ChangeUpdated, true},
		{"chmod only", file, fsnotify.Chmod, 0, false},
		{"remove", filepath.Join(dir, "gone.txt"), fsnotify.Remove, ChangeDeleted, true},
		{"rename", filepath.Join(dir, "old.txt"), fsnotify.Rename, ChangeDeleted, true},
		{"filtered file", other, fsnotify.Write, 0, false},
		{"filtered remove", filepath.Join(dir, "gone.png"), fsnotify.Remove, 0, false},
		{"hidden file", hidden, fsnotify.Write, 0, false},
		{"directory", sub, fsnotify.Create, 0, false},
		{"vanished before stat", filepath.Join(dir, "brief.txt"), fsnotify.Create, 0, false},
	}

	w := newTestWatcher(t, &mockCorpusService{}, nil, Config{Filter: textOnly})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := w.handleEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, kind)
			}
		})
	}
}

func TestWatcher_Flush(t *testing.T) {
	corpus := &mockCorpusService{addErr: map[string]error{"/notes/bad.txt": errBoom}}
	w := newTestWatcher(t, corpus, nil, Config{})
	w.pending["/notes/b.txt"] = ChangeUpdated
	w.pending["/notes/a.txt"] = ChangeUpdated
	w.pending["/notes/bad.txt"] = ChangeUpdated
	w.pending["/notes/old.txt"] = ChangeDeleted

	batch := w.flush(context.Background())

	assert.Equal(t, []string{"/notes/a.txt", "/notes/b.txt"}, batch.Updated)
	assert.Equal(t, []string{"/notes/old.txt"}, batch.Removed)
	assert.ErrorIs(t, batch.Failed["/notes/bad.txt"], errBoom)
	assert.Equal(t, []string{"old.txt"}, corpus.removed)
	assert.False(t, batch.Rebuilt)
	assert.Empty(t, w.pending)
}

func TestWatcher_Flush_RemoveUnknownSource(t *testing.T) {
	corpus := &mockCorpusService{removeErr: domain.ErrNotFound}
	w := newTestWatcher(t, corpus, nil, Config{})
	w.pending["/notes/never-indexed.txt"] = ChangeDeleted

	batch := w.flush(context.Background())

	assert.Empty(t, batch.Removed)
	assert.Empty(t, batch.Failed)
}

func TestWatcher_Flush_Rebuild(t *testing.T) {
	t.Run("rebuilds and saves", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		w := newTestWatcher(t, &mockCorpusService{}, retrieval,
			Config{Rebuild: true, IndexPath: "/data/index"})
		w.pending["/notes/a.txt"] = ChangeUpdated

		batch := w.flush(context.Background())

		assert.True(t, batch.Rebuilt)
		require.NoError(t, batch.Err)
		assert.Equal(t, 1, retrieval.rebuilds)
		assert.Equal(t, []string{"/data/index"}, retrieval.saved)
	})

	t.Run("nothing changed", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		corpus := &mockCorpusService{addErr: map[string]error{"/notes/a.txt": errBoom}}
		w := newTestWatcher(t, corpus, retrieval, Config{Rebuild: true})
		w.pending["/notes/a.txt"] = ChangeUpdated

		batch := w.flush(context.Background())

		assert.False(t, batch.Rebuilt)
		assert.Zero(t, retrieval.rebuilds)
	})

	t.Run("rebuild failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{rebuildErr: domain.ErrRebuildInProgress}
		w := newTestWatcher(t, &mockCorpusService{}, retrieval, Config{Rebuild: true, IndexPath: "/data/index"})
		w.pending["/notes/a.txt"] = ChangeUpdated

		batch := w.flush(context.Background())

		assert.ErrorIs(t, batch.Err, domain.ErrRebuildInProgress)
		assert.False(t, batch.Rebuilt)
		assert.Empty(t, retrieval.saved)
	})

	t.Run("save failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{saveErr: errBoom}
		w := newTestWatcher(t, &mockCorpusService{}, retrieval, Config{Rebuild: true, IndexPath: "/data/index"})
		w.pending["/notes/a.txt"] = ChangeUpdated

		batch := w.flush(context.Background())

		assert.True(t, batch.Rebuilt)
		assert.ErrorIs(t, batch.Err, errBoom)
	})
}

func TestWatcher_Add_SkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "week1"), 0o700))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o700))
	w := newTestWatcher(t, &mockCorpusService{}, nil, Config{})

	require.NoError(t, w.Add(dir))

	watched := w.fsw.WatchList()
	assert.Contains(t, watched, dir)
	assert.Contains(t, watched, filepath.Join(dir, "week1"))
	assert.NotContains(t, watched, filepath.Join(dir, ".git"))
}

func TestWatcher_Add_MissingDirectory(t *testing.T) {
	w := newTestWatcher(t, &mockCorpusService{}, nil, Config{})
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	corpus := &mockCorpusService{}
	w := newTestWatcher(t, corpus, nil, Config{Debounce: 50 * time.Millisecond, Filter: textOnly})
	require.NoError(t, w.Add(dir))

	batches := make(chan Batch, 4)
	w.OnBatch(func(b Batch) { batches <- b })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(dir, "lecture.txt")
	require.NoError(t, os.WriteFile(path, []byte("Heaps keep the minimum at the root."), 0o600))

	select {
	case b := <-batches:
		assert.Equal(t, []string{path}, b.Updated)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for batch")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
