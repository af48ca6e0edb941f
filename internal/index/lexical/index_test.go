package lexical

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func build(t *testing.T, texts map[string]string) *Index {
	t.Helper()
	ids := make([]string, 0, len(texts))
	for id := range texts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chunks := make([]domain.Chunk, 0, len(texts))
	for _, id := range ids {
		chunks = append(chunks, domain.Chunk{ID: id, Text: texts[id]})
	}
	idx, err := Build(context.Background(), chunks)
	require.NoError(t, err)
	return idx
}

func TestBuild_SingleChunkFallsBackToTermFrequency(t *testing.T) {
	idx := build(t, map[string]string{"c0": "Cats are mammals. Dogs are mammals too."})

	idf, ok := idx.IDF("mammals")
	require.True(t, ok)
	assert.Zero(t, idf)

	hits := idx.Search("mammals", 5, 0.1)

	require.Len(t, hits, 1)
	assert.Equal(t, "c0", hits[0].ChunkID)
	assert.InDelta(t, 0.4/math.Sqrt(0.28), hits[0].Score, 1e-9)
}

func TestIndex_Search_Cosine(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "Sorting algorithm analysis.",
		"b": "Graph traversal algorithm.",
	})

	hits := idx.Search("graph", 5, 0)

	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)
	assert.InDelta(t, 1/math.Sqrt2, hits[0].Score, 1e-9)
}

func TestIndex_Search_MinScoreExcludes(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "Sorting algorithm analysis.",
		"b": "Graph traversal algorithm.",
	})

	assert.Empty(t, idx.Search("graph", 5, 0.8))
	assert.Len(t, idx.Search("graph", 5, 0.7), 1)
}

func TestIndex_Search_TiesBrokenByChunkID(t *testing.T) {
	idx := build(t, map[string]string{
		"b": "alpha beta gamma",
		"a": "alpha beta gamma",
		"c": "delta epsilon zeta",
	})

	hits := idx.Search("alpha", 0, 0)

	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "b", hits[1].ChunkID)
	assert.Equal(t, hits[0].Score, hits[1].Score)
}

func TestIndex_Search_Limit(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "queue stack",
		"b": "queue heap",
		"c": "queue tree",
		"d": "graph",
	})

	assert.Len(t, idx.Search("queue", 2, 0), 2)
	assert.Len(t, idx.Search("queue", 0, 0), 3)
}

func TestIndex_Search_NoMatches(t *testing.T) {
	idx := build(t, map[string]string{"a": "queue stack"})

	assert.Empty(t, idx.Search("", 5, 0))
	assert.Empty(t, idx.Search("the and", 5, 0))
	assert.Empty(t, idx.Search("unrelated", 5, 0))
}

func TestBuild_Deterministic(t *testing.T) {
	texts := map[string]string{
		"a": "Binary search trees keep keys ordered.",
		"b": "Hash tables trade ordering for speed.",
		"c": "Search trees and hash tables both store keys.",
	}

	first := build(t, texts).Search("search keys tables", 0, 0)
	second := build(t, texts).Search("search keys tables", 0, 0)

	assert.Equal(t, first, second)
}

func TestBuild_SkipsChunksWithoutTokens(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "the and of 123",
		"b": "recursion",
		"c": "iteration",
	})

	assert.Equal(t, 2, idx.Len())
	idf, _ := idx.IDF("recursion")
	assert.InDelta(t, math.Log(2), idf, 1e-12)
	_, _, ok := idx.Terms("a")
	assert.False(t, ok)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		_, err := Build(context.Background(), []domain.Chunk{{ID: "x", Text: "graph"}, {ID: "x", Text: "tree"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Build(ctx, []domain.Chunk{{ID: "x", Text: "graph"}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty corpus", func(t *testing.T) {
		idx, err := Build(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, idx.Len())
		assert.Empty(t, idx.Search("graph", 5, 0))
	})
}

func TestIndex_Terms(t *testing.T) {
	idx := build(t, map[string]string{"a": "Graph graph traversal"})

	terms, count, ok := idx.Terms("a")

	require.True(t, ok)
	assert.Equal(t, 3, count)
	assert.Len(t, terms, 2)
	assert.Contains(t, terms, "graph")
	assert.Contains(t, terms, "traversal")
}

func TestIndex_Stats(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "zebra yak",
		"b": "apple banana cherry apple",
	})

	assert.Equal(t, 5, idx.VocabularySize())
	assert.Equal(t, 6, idx.TotalTokens())
	assert.InDelta(t, 3.0, idx.AverageChunkTokens(), 1e-12)
	assert.Equal(t, []string{"apple", "banana"}, idx.VocabularySample(2))
	assert.Len(t, idx.VocabularySample(20), 5)
}

func TestIndex_Debug(t *testing.T) {
	idx := build(t, map[string]string{"a": "graph traversal"})

	d := idx.Debug("What is graph coloring?")

	assert.Equal(t, "What is graph coloring?", d.Query)
	assert.Equal(t, []string{"graph", "coloring"}, d.Tokens)
	assert.Equal(t, []string{"graph"}, d.InVocabulary)
	assert.Equal(t, []string{"coloring"}, d.NotInVocabulary)
	assert.Equal(t, []string{"graph", "traversal"}, d.VocabularySample)
}

func TestIndex_Retrieve(t *testing.T) {
	idx := build(t, map[string]string{
		"a": "Sorting algorithm analysis.",
		"b": "Graph traversal algorithm.",
	})

	hits, err := idx.Retrieve(context.Background(), domain.Query{Text: "ignored", Terms: []string{"graph"}}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)

	hits, err = idx.Retrieve(context.Background(), domain.Query{Text: "sorting"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ChunkID)

	assert.Equal(t, "lexical", idx.Name())
}
