package chunker

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func mustNew(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := mustNew(t)
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, p.overlap)
		assert.Equal(t, DefaultMinChunkSize, p.minChunkSize)
	})

	t.Run("custom values", func(t *testing.T) {
		p := mustNew(t, WithChunkSize(500), WithOverlap(50), WithMinChunkSize(20))
		assert.Equal(t, 500, p.chunkSize)
		assert.Equal(t, 50, p.overlap)
		assert.Equal(t, 20, p.minChunkSize)
	})

	t.Run("overlap not below chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150), WithMinChunkSize(10))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("zero chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(0))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("min chunk size above chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(10), WithMinChunkSize(200))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("min chunk size above half the chunk size is rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(0), WithMinChunkSize(90))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", mustNew(t).Name())
}

func TestProcessor_Split_EmptyContent(t *testing.T) {
	p := mustNew(t)
	assert.Empty(t, p.Split(""))
	assert.Empty(t, p.Split("   \n\t  "))
}

func TestProcessor_Split_SingleChunk(t *testing.T) {
	p := mustNew(t)

	segments := p.Split("  Cats are mammals. Dogs are mammals too.  ")

	require.Len(t, segments, 1)
	assert.Equal(t, "Cats are mammals. Dogs are mammals too.", segments[0].Text)
	assert.Equal(t, 0, segments[0].Start)
}

func TestProcessor_Split_SentenceBoundary(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20), WithMinChunkSize(10))
	text := strings.Repeat("x", 70) + ". " + strings.Repeat("y", 100)

	segments := p.Split(text)

	require.Len(t, segments, 3)
	assert.Equal(t, Segment{Start: 0, End: 71, Text: strings.Repeat("x", 70) + "."}, segments[0])
	assert.Equal(t, 51, segments[1].Start)
	assert.Equal(t, 151, segments[1].End)
	assert.Equal(t, 131, segments[2].Start)
	assert.Equal(t, len(text), segments[2].End)
	assert.Equal(t, strings.Repeat("y", 41), segments[2].Text)
}

func TestProcessor_Split_WhitespaceFallbackKeepsShortFinalChunk(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(0), WithMinChunkSize(10))
	text := strings.Repeat("abcd ", 40)

	segments := p.Split(text)

	require.Len(t, segments, 3)
	assert.Equal(t, 99, segments[0].End)
	assert.Equal(t, 194, segments[1].End)
	assert.Equal(t, "abcd", segments[2].Text)
	for _, seg := range segments[:2] {
		assert.False(t, strings.HasSuffix(seg.Text, "ab"), "cut inside a word: %q", seg.Text)
	}
}

func TestProcessor_Split_HardCutWithoutBoundaries(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20), WithMinChunkSize(10))

	segments := p.Split(strings.Repeat("x", 250))

	require.Len(t, segments, 3)
	assert.Len(t, segments[0].Text, 100)
	assert.Equal(t, 80, segments[1].Start)
	assert.Len(t, segments[1].Text, 100)
	assert.Equal(t, 160, segments[2].Start)
	assert.Len(t, segments[2].Text, 90)
}

func TestProcessor_Split_DropsShortMiddleSlices(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(0), WithMinChunkSize(50))
	text := strings.Repeat("x", 100) + strings.Repeat(" ", 100) + strings.Repeat("y", 100)

	segments := p.Split(text)

	require.Len(t, segments, 3)
	assert.Equal(t, strings.Repeat("x", 100), segments[0].Text)
	assert.Equal(t, strings.Repeat("y", 99), segments[1].Text)
	assert.Equal(t, "y", segments[2].Text)
}

func TestProcessor_Split_NeverSplitsRunes(t *testing.T) {
	p := mustNew(t, WithChunkSize(50), WithOverlap(10), WithMinChunkSize(5))

	segments := p.Split(strings.Repeat("é", 120))

	require.NotEmpty(t, segments)
	for _, seg := range segments {
		assert.True(t, utf8.ValidString(seg.Text), "invalid utf-8 in %q", seg.Text)
		assert.LessOrEqual(t, seg.End-seg.Start, 50)
	}
}

// randomProse builds deterministic sentence-like text.
func randomProse(r *rand.Rand, words int) string {
	vocab := []string{"graph", "node", "edge", "tree", "search", "binary", "heap", "queue",
		"stack", "sorting", "algorithm", "complexity", "memory", "pointer", "array"}
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vocab[r.Intn(len(vocab))])
		if r.Intn(12) == 0 {
			b.WriteString([]string{".", "!", "?", ".\n"}[r.Intn(4)])
		}
	}
	return b.String()
}

func TestProcessor_Split_CoverageAndMonotonicity(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	configs := []struct{ size, overlap, min int }{
		{1000, 200, 100},
		{300, 50, 40},
		{120, 0, 20},
		{200, 150, 30},
		{100, 0, 50},
	}

	for _, cfg := range configs {
		p := mustNew(t, WithChunkSize(cfg.size), WithOverlap(cfg.overlap), WithMinChunkSize(cfg.min))
		for trial := 0; trial < 20; trial++ {
			text := randomProse(r, 200+r.Intn(800))
			segments := p.Split(text)
			require.NotEmpty(t, segments)

			assert.Equal(t, 0, segments[0].Start)
			assert.Equal(t, len(text), segments[len(segments)-1].End)

			for i, seg := range segments {
				assert.LessOrEqual(t, len(seg.Text), cfg.size)
				if i < len(segments)-1 {
					assert.GreaterOrEqual(t, len(seg.Text), cfg.min)
				}
				if i > 0 {
					prev := segments[i-1]
					assert.GreaterOrEqual(t, seg.Start, prev.Start, "starts must not decrease")
					assert.LessOrEqual(t, seg.Start, prev.End, "gap between chunks")
				}
			}
		}
	}
}

func TestProcessor_Split_EarlyTerminatorAtLargestMinimum(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(0), WithMinChunkSize(50))
	text := strings.Repeat("a", 60) + "." + strings.Repeat("b", 200)

	segments := p.Split(text)

	require.NotEmpty(t, segments)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 61, segments[0].End)
	for i := 1; i < len(segments); i++ {
		assert.LessOrEqual(t, segments[i].Start, segments[i-1].End, "gap between chunks")
	}
	assert.Equal(t, len(text), segments[len(segments)-1].End)
}

func TestProcessor_Process(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20), WithMinChunkSize(10))
	doc := &domain.Document{
		ID:         "doc",
		SourceName: "notes.txt",
		Text:       strings.Repeat("x", 70) + ". " + strings.Repeat("y", 100),
	}

	chunks, err := p.Process(context.Background(), doc, []domain.Chunk{{ID: "existing"}})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, domain.ChunkID("doc", i), c.ID)
		assert.Equal(t, "doc", c.DocumentID)
		assert.Equal(t, "notes.txt", c.SourceName)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, utf8.RuneCountInString(c.Text), c.CharCount)
	}
	assert.Equal(t, 1, chunks[0].WordCount)
	assert.Equal(t, 2, chunks[1].WordCount)
}

func TestProcessor_Process_EmptyDocument(t *testing.T) {
	chunks, err := mustNew(t).Process(context.Background(), &domain.Document{ID: "doc"}, nil)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mustNew(t).Process(ctx, &domain.Document{ID: "doc", Text: "text"}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
