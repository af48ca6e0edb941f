// Package pages assigns source page numbers to chunks.
package pages

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Processor stamps each chunk with the page holding its start offset.
// Documents without page boundaries leave PageNumber at zero.
type Processor struct{}

// New creates a page assignment processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "pages"
}

// Process sets PageNumber on the incoming chunks. The slice is modified in place.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return chunks, nil
	}

	for i := range chunks {
		chunks[i].PageNumber = doc.PageAt(chunks[i].StartOffset)
	}
	return chunks, nil
}
