package vector

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func newIndex(t *testing.T, dim int, opts ...Option) *Index {
	t.Helper()
	idx, err := New(dim, opts...)
	require.NoError(t, err)
	return idx
}

func TestNew_InvalidDimension(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Search(t *testing.T) {
	idx := newIndex(t, 3)
	_, err := idx.AddBatch(
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	)
	require.NoError(t, err)

	hits, err := idx.Search([]float32{2, 0, 0}, 5, 0)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "c", hits[1].ChunkID)
	assert.InDelta(t, 1/math.Sqrt2, hits[1].Score, 1e-6)
}

func TestIndex_Search_MinScoreAndLimit(t *testing.T) {
	idx := newIndex(t, 3)
	_, err := idx.AddBatch(
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	)
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0, 0}, 5, 0.9)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = idx.Search([]float32{1, 1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c", hits[0].ChunkID)
}

func TestIndex_Search_TiesBrokenByChunkID(t *testing.T) {
	idx := newIndex(t, 2)
	_, err := idx.AddBatch([]string{"b", "a"}, [][]float32{{1, 1}, {2, 2}})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 1}, 0, 0)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "b", hits[1].ChunkID)
}

func TestIndex_Add_Errors(t *testing.T) {
	idx := newIndex(t, 2)
	_, err := idx.Add("a", []float32{1, 0})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   string
		emb  []float32
	}{
		{"wrong dimension", "b", []float32{1, 0, 0}},
		{"duplicate chunk", "a", []float32{0, 1}},
		{"nan", "c", []float32{float32(math.NaN()), 0}},
		{"inf", "d", []float32{float32(math.Inf(1)), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.Add(tt.id, tt.emb)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 1, idx.Len())

	_, err = idx.Search([]float32{1}, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_AddBatch_IsAtomic(t *testing.T) {
	idx := newIndex(t, 2)

	_, err := idx.AddBatch([]string{"a", "b"}, [][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, idx.Len())

	_, err = idx.AddBatch([]string{"a", "a"}, [][]float32{{1, 0}, {0, 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = idx.AddBatch([]string{"a"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, idx.Len())
}

func TestIndex_IDMapping(t *testing.T) {
	idx := newIndex(t, 2)
	ids, err := idx.AddBatch([]string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids)

	vid, ok := idx.VectorID("y")
	assert.True(t, ok)
	assert.Equal(t, int64(1), vid)

	chunkID, ok := idx.ChunkID(0)
	assert.True(t, ok)
	assert.Equal(t, "x", chunkID)

	_, ok = idx.ChunkID(2)
	assert.False(t, ok)
	_, ok = idx.ChunkID(-1)
	assert.False(t, ok)
}

func TestIndex_Vector_ReturnsNormalisedCopy(t *testing.T) {
	idx := newIndex(t, 2)
	_, err := idx.Add("a", []float32{3, 4})
	require.NoError(t, err)

	v, ok := idx.Vector("a")
	require.True(t, ok)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	v[0] = 100
	again, _ := idx.Vector("a")
	assert.InDelta(t, 0.6, again[0], 1e-6)

	_, ok = idx.Vector("missing")
	assert.False(t, ok)
}

func TestIndex_Without(t *testing.T) {
	idx := newIndex(t, 3)
	_, err := idx.AddBatch(
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	require.NoError(t, err)

	pruned := idx.Without([]string{"a"})

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, pruned.Len())
	vid, ok := pruned.VectorID("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), vid)
	_, ok = pruned.VectorID("a")
	assert.False(t, ok)

	hits, err := pruned.Search([]float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Retrieve(t *testing.T) {
	idx := newIndex(t, 2)
	_, err := idx.Add("a", []float32{1, 0})
	require.NoError(t, err)

	hits, err := idx.Retrieve(context.Background(), domain.Query{Text: "q"}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Retrieve(context.Background(), domain.Query{Embedding: []float32{1, 0}}, 5, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	assert.Equal(t, "vector", idx.Name())
}

// clustered builds n vectors around four axis directions with a small
// deterministic perturbation.
func clustered(n, dim int) ([]string, [][]float32) {
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		v[i%4] = 1
		v[(i+1)%dim] += float32(i%7) * 0.01
		ids[i] = fmt.Sprintf("chunk_%03d", i)
		vecs[i] = v
	}
	return ids, vecs
}

func TestIndex_Partitioned_MatchesFlatWhenProbingAll(t *testing.T) {
	ids, vecs := clustered(80, 6)

	flat := newIndex(t, 6)
	_, err := flat.AddBatch(ids, vecs)
	require.NoError(t, err)

	part := newIndex(t, 6, WithPartitions(4, 4))
	_, err = part.AddBatch(ids, vecs)
	require.NoError(t, err)
	assert.True(t, part.Partitioned())
	assert.False(t, flat.Partitioned())

	for _, q := range [][]float32{{1, 0, 0, 0, 0, 0}, {0, 0.5, 1, 0, 0, 0}, {0, 0, 0, 1, 0.2, 0}} {
		want, err := flat.Search(q, 10, 0)
		require.NoError(t, err)
		got, err := part.Search(q, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIndex_Partitioned_SingleProbeFindsNearest(t *testing.T) {
	ids, vecs := clustered(80, 6)

	part := newIndex(t, 6, WithPartitions(4, 1))
	_, err := part.AddBatch(ids, vecs)
	require.NoError(t, err)

	late := []float32{0, 0, 1, 0, 0, 0.5}
	_, err = part.Add("late", late)
	require.NoError(t, err)

	hits, err := part.Search(late, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "late", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestIndex_Partitioned_FewerVectorsThanPartitions(t *testing.T) {
	idx := newIndex(t, 2, WithPartitions(16, 2))
	_, err := idx.AddBatch([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0, 1}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)
}

func TestIndex_Without_KeepsCentroids(t *testing.T) {
	ids, vecs := clustered(40, 6)
	part := newIndex(t, 6, WithPartitions(4, 4))
	_, err := part.AddBatch(ids, vecs)
	require.NoError(t, err)

	pruned := part.Without(ids[:10])

	assert.True(t, pruned.Partitioned())
	assert.Equal(t, 30, pruned.Len())
	hits, err := pruned.Search(vecs[20], 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[20], hits[0].ChunkID)
}
