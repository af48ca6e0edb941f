package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/index/lexical"
	"github.com/custodia-labs/studymate/internal/index/vector"
	"github.com/custodia-labs/studymate/internal/logger"
	"github.com/custodia-labs/studymate/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// snapshot is an immutable set of indexes built from one view of the corpus.
// Searches read whichever snapshot is current; writers publish a new one.
type snapshot struct {
	handle  domain.IndexHandle
	ordered []domain.Chunk
	chunks  map[string]domain.Chunk
	lexical *lexical.Index
	vectors *vector.Index
	ranker  *Ranker

	// model is the embedding model that produced the vectors.
	model string

	// corpusVersion is the corpus version the snapshot was built from.
	corpusVersion uint64
}

func (s *snapshot) lookup(chunkID string) (domain.Chunk, bool) {
	c, ok := s.chunks[chunkID]
	return c, ok
}

// RetrievalService owns the live index snapshot and answers searches
// against it. Any number of searches may run while one writer builds the
// next snapshot; a second writer is rejected with ErrRebuildInProgress.
type RetrievalService struct {
	store     driven.CorpusStore
	embedding driven.EmbeddingService
	embedder  *chunkEmbedder
	settings  domain.RetrievalSettings

	current    atomic.Pointer[snapshot]
	building   atomic.Bool
	version    atomic.Uint64
	generation atomic.Uint64
}

// NewRetrievalService creates a retrieval service.
// The store and embeddingService parameters are optional (can be nil).
// Without a store only IndexCorpus and LoadIndex can publish snapshots;
// without an embedding service the engine runs lexical only.
func NewRetrievalService(
	store driven.CorpusStore,
	embeddingService driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	s := &RetrievalService{
		store:     store,
		embedding: embeddingService,
		settings:  settings,
	}
	if embeddingService != nil {
		s.embedder = newChunkEmbedder(embeddingService, settings.Embedding.BatchSize, settings.Embedding.Workers)
	}
	return s
}

// IndexCorpus builds a snapshot from chunks and publishes it.
func (s *RetrievalService) IndexCorpus(ctx context.Context, chunks []domain.Chunk) (domain.IndexHandle, error) {
	if !s.building.CompareAndSwap(false, true) {
		metrics.RebuildsTotal.WithLabelValues("busy").Inc()
		return domain.IndexHandle{}, domain.ErrRebuildInProgress
	}
	defer s.building.Store(false)

	return s.index(ctx, func(context.Context) ([]domain.Chunk, error) {
		return chunks, nil
	})
}

// Rebuild indexes every chunk held by the corpus store.
func (s *RetrievalService) Rebuild(ctx context.Context) (domain.IndexHandle, error) {
	if s.store == nil {
		return domain.IndexHandle{}, fmt.Errorf("%w: no corpus store configured", domain.ErrInvalidInput)
	}
	if !s.building.CompareAndSwap(false, true) {
		metrics.RebuildsTotal.WithLabelValues("busy").Inc()
		return domain.IndexHandle{}, domain.ErrRebuildInProgress
	}
	defer s.building.Store(false)

	return s.index(ctx, s.store.AllChunks)
}

// RebuildAsync runs Rebuild on its own goroutine. The channel receives
// exactly one result and is then closed.
func (s *RetrievalService) RebuildAsync(ctx context.Context) <-chan driving.RebuildResult {
	ch := make(chan driving.RebuildResult, 1)
	go func() {
		defer close(ch)
		h, err := s.Rebuild(ctx)
		ch <- driving.RebuildResult{Handle: h, Err: err}
	}()
	return ch
}

// index loads chunks, builds a snapshot and publishes it. The caller holds
// the writer guard. On failure the previous snapshot stays live.
func (s *RetrievalService) index(
	ctx context.Context, load func(context.Context) ([]domain.Chunk, error),
) (domain.IndexHandle, error) {
	logger.Section("Index Build")
	start := time.Now()
	defer logger.Elapsed("index build", start)

	// Changes recorded after this point leave the new snapshot stale.
	version := s.version.Load()

	snap, err := s.buildFrom(ctx, load)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		result := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result = "cancelled"
		}
		metrics.RebuildsTotal.WithLabelValues(result).Inc()
		logger.Warn("Index build failed, keeping previous snapshot: %v", err)
		return domain.IndexHandle{}, fmt.Errorf("build index: %w", err)
	}

	snap.corpusVersion = version
	s.publish(snap)

	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	logger.Info("Indexed %d chunks from %d documents (generation %d, vectors=%t)",
		snap.handle.ChunkCount, snap.handle.DocumentCount, snap.handle.Generation, snap.vectors != nil)

	return s.handleOf(snap), nil
}

func (s *RetrievalService) buildFrom(
	ctx context.Context, load func(context.Context) ([]domain.Chunk, error),
) (*snapshot, error) {
	chunks, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	return s.build(ctx, chunks, s.current.Load())
}

// build indexes chunks lexically and, when an embedding service is
// configured, embeds them concurrently. Vectors of unchanged chunks are
// reused from prev.
func (s *RetrievalService) build(ctx context.Context, chunks []domain.Chunk, prev *snapshot) (*snapshot, error) {
	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	for i := range ordered {
		if ordered[i].ID == "" {
			return nil, fmt.Errorf("%w: chunk %d has no id", domain.ErrInvalidInput, i)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var (
		lex     *lexical.Index
		vectors [][]float32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		idx, err := lexical.Build(gctx, ordered)
		if err != nil {
			return err
		}
		lex = idx
		return nil
	})
	if s.embedder != nil && len(ordered) > 0 {
		g.Go(func() error {
			v, err := s.embedder.embed(gctx, ordered, s.reusableVectors(prev, ordered))
			if err != nil {
				return err
			}
			vectors = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		vidx  *vector.Index
		model string
	)
	if vectors != nil {
		idx, err := s.buildVectors(ordered, vectors)
		if err != nil {
			return nil, err
		}
		vidx = idx
		model = s.embedding.ModelName()
	}

	return s.newSnapshot(ordered, lex, vidx, model), nil
}

// reusableVectors returns a lookup of vectors from prev for chunks whose
// text is unchanged and that were embedded by the current model.
func (s *RetrievalService) reusableVectors(prev *snapshot, chunks []domain.Chunk) VectorLookup {
	if prev == nil || prev.vectors == nil || prev.model != s.embedding.ModelName() {
		return nil
	}
	text := make(map[string]string, len(chunks))
	for i := range chunks {
		text[chunks[i].ID] = chunks[i].Text
	}
	return func(chunkID string) ([]float32, bool) {
		old, ok := prev.chunks[chunkID]
		if !ok || old.Text != text[chunkID] {
			return nil, false
		}
		return prev.vectors.Vector(chunkID)
	}
}

func (s *RetrievalService) buildVectors(chunks []domain.Chunk, vectors [][]float32) (*vector.Index, error) {
	dim := len(vectors[0])
	if want := s.embedding.Dimensions(); want > 0 && dim != want {
		return nil, fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrEmbeddingFailure, s.embedding.ModelName(), dim, want)
	}

	opts := []vector.Option{vector.WithModel(s.embedding.ModelName())}
	vs := s.settings.Vector
	if vs.Partitions > 0 && len(chunks) >= vs.PartitionThreshold {
		opts = append(opts, vector.WithPartitions(vs.Partitions, vs.Probes))
	}

	idx, err := vector.New(dim, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	if _, err := idx.AddBatch(ids, vectors); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	return idx, nil
}

// newSnapshot assembles a snapshot from ordered chunks and their indexes.
// The vector index may be nil.
func (s *RetrievalService) newSnapshot(
	ordered []domain.Chunk, lex *lexical.Index, vidx *vector.Index, model string,
) *snapshot {
	snap := &snapshot{
		ordered: ordered,
		chunks:  make(map[string]domain.Chunk, len(ordered)),
		lexical: lex,
		vectors: vidx,
		model:   model,
	}

	docs := make(map[string]struct{})
	sources := make(map[string]struct{})
	for i := range ordered {
		snap.chunks[ordered[i].ID] = ordered[i]
		docs[ordered[i].DocumentID] = struct{}{}
		sources[ordered[i].SourceName] = struct{}{}
	}

	retrievers := []driven.Retriever{lex}
	if vidx != nil {
		retrievers = append(retrievers, vidx)
	}
	snap.ranker = NewRanker(snap.lookup, lex, retrievers...).
		WithCandidateMultiplier(s.settings.Search.CandidateMultiplier)

	snap.handle = domain.IndexHandle{
		ID:               uuid.NewString(),
		ChunkCount:       len(ordered),
		DocumentCount:    len(docs),
		SourceCount:      len(sources),
		VectorCount:      vidx.Len(),
		VocabularySize:   lex.VocabularySize(),
		VectorsAvailable: vidx != nil,
		BuiltAt:          time.Now(),
	}
	if vidx != nil {
		snap.handle.Dimension = vidx.Dimension()
	}
	return snap
}

// publish makes snap the live snapshot.
func (s *RetrievalService) publish(snap *snapshot) {
	snap.handle.Generation = s.generation.Add(1)
	s.current.Store(snap)

	metrics.IndexedChunks.WithLabelValues(lexical.Name).Set(float64(snap.lexical.Len()))
	metrics.IndexedChunks.WithLabelValues(vector.Name).Set(float64(snap.vectors.Len()))
}

// Search ranks the chunks of the live snapshot for a question.
func (s *RetrievalService) Search(
	ctx context.Context, question string, opts domain.SearchOptions,
) (domain.RetrievalOutcome, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", question)
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.RetrievalOutcome{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	k, minSimilarity, err := s.resolveOptions(opts)
	if err != nil {
		return domain.RetrievalOutcome{}, err
	}

	q := domain.Query{Text: question, Terms: lexical.Tokenize(question)}
	outcome := domain.RetrievalOutcome{
		Query:      question,
		QueryTerms: q.Terms,
		Results:    []domain.SearchResult{},
		Mode:       domain.SearchModeLexical,
	}
	if outcome.QueryTerms == nil {
		outcome.QueryTerms = []string{}
	}
	logger.Debug("Terms: %v, k: %d, min similarity: %g", q.Terms, k, minSimilarity)

	snap := s.current.Load()
	if snap == nil || len(snap.ordered) == 0 {
		logger.Debug("Nothing indexed, returning empty outcome")
		outcome.NoDocuments = true
		s.observeSearch(outcome, "no_documents", start)
		return outcome, nil
	}
	if s.stateOf(snap) == domain.IndexStateStale {
		logger.Warn("Index is stale: documents added since the last rebuild are not searched")
		outcome.Stale = true
	}

	mode := s.effectiveMode(snap, opts.Mode)
	logger.Info("Effective search mode: %s", mode)

	sets, fallback, err := s.retrieve(ctx, snap, q, mode, k, minSimilarity)
	if err != nil {
		outcome.Mode = mode
		s.observeSearch(outcome, "error", start)
		return domain.RetrievalOutcome{}, fmt.Errorf("search: %w", err)
	}
	if fallback {
		mode = domain.SearchModeLexical
		outcome.EmbeddingFallback = true
	}
	outcome.Mode = mode

	outcome.Results = snap.ranker.Merge(q, sets, k, minSimilarity)
	outcome.Confidence = EstimateConfidence(outcome.Results, len(q.Terms))
	outcome.UniqueSourceCount = uniqueSources(outcome.Results)
	logger.Info("Final results: %d, confidence %.1f", len(outcome.Results), outcome.Confidence)

	label := "results"
	if len(outcome.Results) == 0 {
		label = "empty"
	}
	s.observeSearch(outcome, label, start)
	return outcome, nil
}

func (s *RetrievalService) resolveOptions(opts domain.SearchOptions) (int, float64, error) {
	if !opts.Mode.IsValid() {
		return 0, 0, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, opts.Mode)
	}
	k := opts.K
	if k < 0 {
		return 0, 0, fmt.Errorf("%w: k must not be negative, got %d", domain.ErrInvalidInput, k)
	}
	if k == 0 {
		k = s.settings.Search.TopK
	}
	minSimilarity := s.settings.Search.MinSimilarity
	if opts.MinSimilarity != nil {
		minSimilarity = *opts.MinSimilarity
		if math.IsNaN(minSimilarity) {
			return 0, 0, fmt.Errorf("%w: min similarity is NaN", domain.ErrInvalidInput)
		}
	}
	return k, minSimilarity, nil
}

// effectiveMode picks the mode a snapshot can serve. Requests for vector
// search degrade to lexical when the snapshot has no vectors.
func (s *RetrievalService) effectiveMode(snap *snapshot, requested domain.SearchMode) domain.SearchMode {
	canDoVector := snap.vectors != nil && s.embedder != nil

	switch requested {
	case domain.SearchModeLexical:
		return domain.SearchModeLexical
	case domain.SearchModeVector:
		if canDoVector {
			return domain.SearchModeVector
		}
	default:
		if canDoVector {
			return domain.SearchModeHybrid
		}
	}
	return domain.SearchModeLexical
}

// retrieve runs the lexical index and the query embedding in parallel.
// The lexical candidates double as the fallback when embedding fails, in
// which case fallback is true and only the lexical set is returned.
func (s *RetrievalService) retrieve(
	ctx context.Context, snap *snapshot, q domain.Query, mode domain.SearchMode, k int, minSimilarity float64,
) ([]CandidateSet, bool, error) {
	var (
		lexHits  []domain.Candidate
		vecHits  []domain.Candidate
		embedErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := snap.lexical.Retrieve(gctx, q, 0, minSimilarity)
		if err != nil {
			return err
		}
		lexHits = hits
		return nil
	})
	if mode != domain.SearchModeLexical {
		g.Go(func() error {
			vq := q
			emb, err := s.embedder.embedQuery(gctx, q.Text)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				embedErr = err
				return nil
			}
			vq.Embedding = emb

			limit := k * s.settings.Search.CandidateMultiplier
			hits, err := snap.vectors.Retrieve(gctx, vq, limit, minSimilarity)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				embedErr = err
				return nil
			}
			vecHits = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	lexSet := CandidateSet{Retriever: lexical.Name, Candidates: lexHits}
	if embedErr != nil {
		logger.Warn("Query embedding failed, falling back to lexical ranking: %v", embedErr)
		metrics.EmbeddingFallbacksTotal.Inc()
		return []CandidateSet{lexSet}, true, nil
	}

	logger.Debug("Candidates: lexical=%d vector=%d", len(lexHits), len(vecHits))
	switch mode {
	case domain.SearchModeVector:
		return []CandidateSet{{Retriever: vector.Name, Candidates: vecHits}}, false, nil
	case domain.SearchModeHybrid:
		return []CandidateSet{lexSet, {Retriever: vector.Name, Candidates: vecHits}}, false, nil
	default:
		return []CandidateSet{lexSet}, false, nil
	}
}

func (s *RetrievalService) observeSearch(outcome domain.RetrievalOutcome, label string, start time.Time) {
	mode := outcome.Mode.String()
	metrics.SearchesTotal.WithLabelValues(mode, label).Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// SaveIndex writes the live snapshot to path. A snapshot without vectors
// is saved lexical only.
func (s *RetrievalService) SaveIndex(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.current.Load()
	if snap == nil {
		return domain.ErrIndexUnavailable
	}
	if err := vector.Save(path, snap.vectors, snap.ordered); err != nil {
		return err
	}
	logger.Debug("Saved snapshot %s (%d chunks) to %s", snap.handle.ID, len(snap.ordered), path)
	return nil
}

// LoadIndex replaces the live snapshot with the one stored at path. The
// lexical index is rebuilt from the stored chunk records. A file pair that
// is inconsistent, or whose dimension differs from the embedding model's,
// leaves the live snapshot untouched. Vectors recorded for another model
// are dropped and the index is marked stale so a rebuild re-embeds them.
func (s *RetrievalService) LoadIndex(ctx context.Context, path string) (domain.IndexHandle, error) {
	if !s.building.CompareAndSwap(false, true) {
		return domain.IndexHandle{}, domain.ErrRebuildInProgress
	}
	defer s.building.Store(false)

	version := s.version.Load()

	vidx, chunks, err := vector.Load(path)
	if err != nil {
		return domain.IndexHandle{}, err
	}

	var (
		model        string
		otherVectors bool
	)
	if vidx != nil && s.embedding != nil {
		current := s.embedding.ModelName()
		switch want := s.embedding.Dimensions(); {
		case vidx.Model() != current:
			logger.Warn("Saved vectors were made by %q, not %q; loading lexical only", vidx.Model(), current)
			vidx = nil
			otherVectors = true
		case want > 0 && vidx.Dimension() != want:
			return domain.IndexHandle{}, domain.NewPersistenceError(vector.VectorFile(path),
				fmt.Errorf("dimension %d does not match embedding model dimension %d", vidx.Dimension(), want))
		default:
			model = current
		}
	}

	lex, err := lexical.Build(ctx, chunks)
	if err != nil {
		return domain.IndexHandle{}, fmt.Errorf("load index: %w", err)
	}

	snap := s.newSnapshot(chunks, lex, vidx, model)
	snap.corpusVersion = version
	s.publish(snap)
	if otherVectors {
		s.MarkStale()
	} else if s.store != nil && !s.matchesStore(ctx, chunks) {
		logger.Warn("Loaded index does not match the corpus store, rebuild to refresh it")
		s.MarkStale()
	}

	logger.Info("Loaded %d chunks from %s (vectors=%t)", len(chunks), path, vidx != nil)
	return s.handleOf(snap), nil
}

// matchesStore reports whether the store holds exactly the given chunks.
// Store errors count as a mismatch.
func (s *RetrievalService) matchesStore(ctx context.Context, chunks []domain.Chunk) bool {
	stored, err := s.store.AllChunks(ctx)
	if err != nil || len(stored) != len(chunks) {
		return false
	}
	ids := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		ids[chunks[i].ID] = struct{}{}
	}
	for i := range stored {
		if _, ok := ids[stored[i].ID]; !ok {
			return false
		}
	}
	return true
}

// RemoveSource deletes a source from the store and publishes a snapshot
// without its chunks. It returns ErrNotFound when nothing matched.
func (s *RetrievalService) RemoveSource(ctx context.Context, sourceName string) (int, error) {
	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		return 0, fmt.Errorf("%w: empty source name", domain.ErrInvalidInput)
	}
	if !s.building.CompareAndSwap(false, true) {
		return 0, domain.ErrRebuildInProgress
	}
	defer s.building.Store(false)

	removed := make(map[string]struct{})
	if s.store != nil {
		ids, err := s.store.DeleteSource(ctx, sourceName)
		if err != nil {
			return 0, fmt.Errorf("remove source %s: %w", sourceName, err)
		}
		for _, id := range ids {
			removed[id] = struct{}{}
		}
	}

	snap := s.current.Load()
	var keep []domain.Chunk
	pruned := false
	if snap != nil {
		keep = make([]domain.Chunk, 0, len(snap.ordered))
		for _, c := range snap.ordered {
			if _, gone := removed[c.ID]; gone || c.SourceName == sourceName {
				removed[c.ID] = struct{}{}
				pruned = true
				continue
			}
			keep = append(keep, c)
		}
	}
	if len(removed) == 0 {
		return 0, fmt.Errorf("%w: source %q", domain.ErrNotFound, sourceName)
	}

	if pruned {
		lex, err := lexical.Build(ctx, keep)
		if err != nil {
			return 0, fmt.Errorf("remove source %s: %w", sourceName, err)
		}
		var vidx *vector.Index
		if snap.vectors != nil {
			ids := make([]string, 0, len(removed))
			for id := range removed {
				ids = append(ids, id)
			}
			vidx = snap.vectors.Without(ids)
		}

		next := s.newSnapshot(keep, lex, vidx, snap.model)
		next.corpusVersion = snap.corpusVersion
		s.publish(next)
	}

	logger.Info("Removed %d chunks of %s", len(removed), sourceName)
	return len(removed), nil
}

// MarkStale records a corpus change. The live snapshot stays searchable
// and is reported stale until the next build.
func (s *RetrievalService) MarkStale() {
	s.version.Add(1)
}

// State returns the lifecycle state of the live snapshot.
func (s *RetrievalService) State() domain.IndexState {
	return s.stateOf(s.current.Load())
}

func (s *RetrievalService) stateOf(snap *snapshot) domain.IndexState {
	switch {
	case snap == nil || len(snap.ordered) == 0:
		return domain.IndexStateEmpty
	case snap.corpusVersion != s.version.Load():
		return domain.IndexStateStale
	default:
		return domain.IndexStateIndexed
	}
}

// Handle describes the live snapshot.
func (s *RetrievalService) Handle() domain.IndexHandle {
	snap := s.current.Load()
	if snap == nil {
		return domain.IndexHandle{State: domain.IndexStateEmpty}
	}
	return s.handleOf(snap)
}

func (s *RetrievalService) handleOf(snap *snapshot) domain.IndexHandle {
	h := snap.handle
	h.State = s.stateOf(snap)
	return h
}

// Stats summarises the live snapshot.
func (s *RetrievalService) Stats() domain.IndexStats {
	stats := domain.IndexStats{
		State:         domain.IndexStateEmpty,
		MinSimilarity: s.settings.Search.MinSimilarity,
		TopK:          s.settings.Search.TopK,
	}
	snap := s.current.Load()
	if snap == nil {
		return stats
	}

	stats.State = s.stateOf(snap)
	stats.ChunkCount = snap.handle.ChunkCount
	stats.DocumentCount = snap.handle.DocumentCount
	stats.SourceCount = snap.handle.SourceCount
	stats.VectorCount = snap.handle.VectorCount
	stats.VocabularySize = snap.handle.VocabularySize
	stats.TotalTokens = snap.lexical.TotalTokens()
	stats.AverageChunkLen = snap.lexical.AverageChunkTokens()
	stats.Generation = snap.handle.Generation
	stats.VectorsAvailable = snap.handle.VectorsAvailable
	return stats
}

// Debug explains how a question is tokenised against the live vocabulary.
func (s *RetrievalService) Debug(question string) domain.QueryDebug {
	var lex *lexical.Index
	if snap := s.current.Load(); snap != nil {
		lex = snap.lexical
	}
	return lex.Debug(question)
}
