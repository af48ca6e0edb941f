// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultMinChunkSize is the shortest chunk kept, except for the last one.
const DefaultMinChunkSize = 100

// Segment is a slice of document text produced by Split.
type Segment struct {
	// Start and End delimit the untrimmed slice in the source text.
	Start int
	End   int

	// Text is the trimmed slice.
	Text string
}

// Processor splits document text into overlapping, size-bounded chunks
// that end on sentence or word boundaries where possible.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize    int
	overlap      int
	minChunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithMinChunkSize sets the minimum chunk length in characters.
func WithMinChunkSize(size int) Option {
	return func(p *Processor) {
		p.minChunkSize = size
	}
}

// New creates a new chunker processor with the given options.
// Inconsistent parameters are rejected with domain.ErrInvalidInput.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultChunkOverlap,
		minChunkSize: DefaultMinChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	settings := domain.ChunkingSettings{
		ChunkSize:    p.chunkSize,
		Overlap:      p.overlap,
		MinChunkSize: p.minChunkSize,
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from document text.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	segments := p.Split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(segments))

	for i, seg := range segments {
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, i),
			DocumentID:  doc.ID,
			SourceName:  doc.SourceName,
			Index:       i,
			Text:        seg.Text,
			StartOffset: seg.Start,
			EndOffset:   seg.End,
			WordCount:   len(strings.Fields(seg.Text)),
			CharCount:   utf8.RuneCountInString(seg.Text),
		})
	}

	return chunks, nil
}

// Split cuts text into segments. Empty or whitespace-only text yields none.
func (p *Processor) Split(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	n := len(text)
	if n <= p.chunkSize {
		return []Segment{{Start: 0, End: n, Text: strings.TrimSpace(text)}}
	}

	segments := make([]Segment, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0

	for start < n {
		end := start + p.chunkSize
		if end < n {
			end = p.boundary(text, start, end)
		} else {
			end = n
		}

		last := end >= n
		slice := strings.TrimSpace(text[start:end])
		if len(slice) >= p.minChunkSize || (last && slice != "") {
			segments = append(segments, Segment{Start: start, End: end, Text: slice})
		}
		if last {
			break
		}

		next := end - p.overlap
		if next < start+p.minChunkSize {
			next = start + p.minChunkSize
		}
		start = runeStartForward(text, next)
	}

	return segments
}

// boundary picks the cut position for a chunk starting at start whose
// hard limit is end. The search looks back at most chunkSize/2 characters.
func (p *Processor) boundary(text string, start, end int) int {
	half := start + p.chunkSize/2

	for i := end - 1; i > half; i-- {
		switch text[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}

	for i := end - 1; i > half; i-- {
		if text[i] == ' ' || text[i] == '\t' {
			return i
		}
	}

	return runeStartBackward(text, start, end)
}

// runeStartBackward moves a hard cut back onto a UTF-8 rune boundary.
func runeStartBackward(text string, start, end int) int {
	i := end
	for i > start+1 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// runeStartForward moves a chunk start onto a UTF-8 rune boundary.
func runeStartForward(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}
