package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records every text it is asked to embed.
type countingEmbedder struct {
	requested []string
	err       error
	closed    bool
}

func (e *countingEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.requested = append(e.requested, text)
	return e.vector(text), nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		e.requested = append(e.requested, t)
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *countingEmbedder) Dimensions() int   { return 2 }
func (e *countingEmbedder) ModelName() string { return "counting" }
func (e *countingEmbedder) Close() error      { e.closed = true; return nil }

func TestEmbeddingService_Embed(t *testing.T) {
	inner := &countingEmbedder{}
	s, err := New(inner, 8)
	require.NoError(t, err)

	first, err := s.Embed(context.Background(), "graph")
	require.NoError(t, err)
	second, err := s.Embed(context.Background(), "graph")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"graph"}, inner.requested)
	assert.Equal(t, 1, s.Len())
}

func TestEmbeddingService_EmbedBatch_OnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	s, err := New(inner, 8)
	require.NoError(t, err)

	_, err = s.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	inner.requested = nil

	vectors, err := s.EmbedBatch(context.Background(), []string{"bb", "ccc", "a"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {3, 1}, {1, 1}}, vectors)
	assert.Equal(t, []string{"ccc"}, inner.requested)
}

func TestEmbeddingService_EmbedBatch_AllCached(t *testing.T) {
	inner := &countingEmbedder{}
	s, err := New(inner, 8)
	require.NoError(t, err)
	_, err = s.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	inner.err = errors.New("should not be called")

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "a"})

	require.NoError(t, err)
	assert.Len(t, vectors, 2)
}

func TestEmbeddingService_ReturnsCopies(t *testing.T) {
	s, err := New(&countingEmbedder{}, 8)
	require.NoError(t, err)

	v, err := s.Embed(context.Background(), "graph")
	require.NoError(t, err)
	v[0] = 99

	again, err := s.Embed(context.Background(), "graph")
	require.NoError(t, err)
	assert.Equal(t, float32(5), again[0])
}

func TestEmbeddingService_Eviction(t *testing.T) {
	inner := &countingEmbedder{}
	s, err := New(inner, 2)
	require.NoError(t, err)

	for _, text := range []string{"a", "b", "c", "a"} {
		_, err := s.Embed(context.Background(), text)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b", "c", "a"}, inner.requested)
	assert.Equal(t, 2, s.Len())
}

func TestEmbeddingService_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("boom")}
	s, err := New(inner, 8)
	require.NoError(t, err)

	_, err = s.EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestEmbeddingService_Passthrough(t *testing.T) {
	inner := &countingEmbedder{}
	s, err := New(inner, 8)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Dimensions())
	assert.Equal(t, "counting", s.ModelName())
	assert.NoError(t, s.Close())
	assert.True(t, inner.closed)
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(&countingEmbedder{}, 0)
	assert.Error(t, err)
}
