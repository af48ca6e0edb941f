// Package vector implements the dense embedding index.
//
// Vectors are L2-normalised on insert and on query, so the inner product
// equals cosine similarity. Storage is append-only with dense vector ids;
// an optional partitioned quantizer narrows the scan for large corpora.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Name identifies the vector retriever.
const Name = "vector"

// Index is an inner-product index over normalised embeddings.
// Mutation happens while a snapshot is being built; a published index is only read.
type Index struct {
	mu sync.RWMutex

	dim     int
	model   string
	vectors []float32
	ids     []string
	byChunk map[string]int64

	quantizer *quantizer
}

var _ driven.Retriever = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithPartitions enables the partitioned quantizer with nlist partitions of
// which nprobe are scanned per query. It is trained on the first batch added.
func WithPartitions(nlist, nprobe int) Option {
	return func(idx *Index) {
		if nlist <= 0 {
			return
		}
		if nprobe <= 0 {
			nprobe = 1
		}
		idx.quantizer = &quantizer{nlist: nlist, nprobe: nprobe}
	}
}

// WithModel records the embedding model that produced the vectors.
func WithModel(name string) Option {
	return func(idx *Index) {
		idx.model = name
	}
}

// New creates an empty index for vectors of the given dimension.
func New(dim int, opts ...Option) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dim)
	}
	idx := &Index{
		dim:     dim,
		byChunk: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Name returns the retriever name.
func (idx *Index) Name() string {
	return Name
}

// Dimension returns the vector dimension.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Model returns the embedding model recorded for the vectors, or "" when unknown.
func (idx *Index) Model() string {
	return idx.model
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Partitioned reports whether the quantizer is trained.
func (idx *Index) Partitioned() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.quantizer.trained()
}

// Add stores one embedding and returns its vector id.
func (idx *Index) Add(chunkID string, embedding []float32) (int64, error) {
	ids, err := idx.AddBatch([]string{chunkID}, [][]float32{embedding})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AddBatch stores embeddings for the given chunk ids. The batch is validated
// as a whole; on error nothing is added. The first batch trains the
// quantizer when partitions are enabled.
func (idx *Index) AddBatch(chunkIDs []string, embeddings [][]float32) ([]int64, error) {
	if len(chunkIDs) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d chunk ids for %d embeddings", domain.ErrInvalidInput, len(chunkIDs), len(embeddings))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := make(map[string]struct{}, len(chunkIDs))
	normalised := make([]float32, 0, len(embeddings)*idx.dim)
	for i, emb := range embeddings {
		id := chunkIDs[i]
		if _, dup := idx.byChunk[id]; dup {
			return nil, fmt.Errorf("%w: chunk %s already indexed", domain.ErrInvalidInput, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: chunk %s repeated in batch", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}

		v, err := normalise(emb, idx.dim)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", id, err)
		}
		normalised = append(normalised, v...)
	}

	if idx.quantizer != nil && !idx.quantizer.trained() && len(embeddings) > 0 {
		idx.quantizer.train(normalised, idx.dim)
	}

	out := make([]int64, len(chunkIDs))
	for i, id := range chunkIDs {
		vid := int64(len(idx.ids))
		v := normalised[i*idx.dim : (i+1)*idx.dim]
		idx.vectors = append(idx.vectors, v...)
		idx.ids = append(idx.ids, id)
		idx.byChunk[id] = vid
		if idx.quantizer.trained() {
			idx.quantizer.add(vid, v, idx.dim)
		}
		out[i] = vid
	}
	return out, nil
}

// Search returns up to k chunks whose similarity to the query exceeds
// minScore, best first with ties broken by chunk id. A k of zero returns
// every qualifying chunk.
func (idx *Index) Search(query []float32, k int, minScore float64) ([]domain.Candidate, error) {
	q, err := normalise(query, idx.dim)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := int64(len(idx.ids))
	score := func(vid int64) (domain.Candidate, bool) {
		if vid < 0 || vid >= n {
			return domain.Candidate{}, false
		}
		s := float64(dot(q, idx.vectors[vid*int64(idx.dim):(vid+1)*int64(idx.dim)]))
		if math.IsNaN(s) || s <= minScore {
			return domain.Candidate{}, false
		}
		return domain.Candidate{ChunkID: idx.ids[vid], Score: s}, true
	}

	var hits []domain.Candidate
	if idx.quantizer.trained() {
		for _, part := range idx.quantizer.probe(q, idx.dim) {
			for _, vid := range idx.quantizer.lists[part] {
				if c, ok := score(vid); ok {
					hits = append(hits, c)
				}
			}
		}
	} else {
		for vid := int64(0); vid < n; vid++ {
			if c, ok := score(vid); ok {
				hits = append(hits, c)
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Retrieve implements driven.Retriever. Queries without an embedding yield no candidates.
func (idx *Index) Retrieve(ctx context.Context, q domain.Query, limit int, minScore float64) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Embedding == nil {
		return nil, nil
	}
	return idx.Search(q.Embedding, limit, minScore)
}

// Vector returns a copy of the stored normalised vector for a chunk.
func (idx *Index) Vector(chunkID string) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	vid, ok := idx.byChunk[chunkID]
	if !ok {
		return nil, false
	}
	out := make([]float32, idx.dim)
	copy(out, idx.vectors[vid*int64(idx.dim):])
	return out, true
}

// ChunkID resolves a vector id to its chunk id.
func (idx *Index) ChunkID(vectorID int64) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if vectorID < 0 || vectorID >= int64(len(idx.ids)) {
		return "", false
	}
	return idx.ids[vectorID], true
}

// VectorID resolves a chunk id to its vector id.
func (idx *Index) VectorID(chunkID string) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	vid, ok := idx.byChunk[chunkID]
	return vid, ok
}

// Without returns a copy of the index minus the given chunks. Vector ids
// are renumbered densely in their original order and a trained quantizer
// keeps its centroids.
func (idx *Index) Without(chunkIDs []string) *Index {
	drop := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = struct{}{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := &Index{
		dim:     idx.dim,
		model:   idx.model,
		byChunk: make(map[string]int64, len(idx.ids)),
	}
	if idx.quantizer != nil {
		out.quantizer = idx.quantizer.cloneEmpty()
	}

	for vid, id := range idx.ids {
		if _, gone := drop[id]; gone {
			continue
		}
		v := idx.vectors[vid*idx.dim : (vid+1)*idx.dim]
		nid := int64(len(out.ids))
		out.vectors = append(out.vectors, v...)
		out.ids = append(out.ids, id)
		out.byChunk[id] = nid
		if out.quantizer.trained() {
			out.quantizer.lists[idx.quantizer.assign[vid]] = append(out.quantizer.lists[idx.quantizer.assign[vid]], nid)
			out.quantizer.assign = append(out.quantizer.assign, idx.quantizer.assign[vid])
		}
	}
	return out
}

// normalise validates and L2-normalises a copy of v. A zero vector is kept as is.
func normalise(v []float32, dim int) ([]float32, error) {
	if len(v) != dim {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", domain.ErrInvalidInput, dim, len(v))
	}
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: vector contains NaN or Inf", domain.ErrInvalidInput)
		}
		sum += f * f
	}
	out := make([]float32, dim)
	if sum == 0 {
		return out, nil
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
