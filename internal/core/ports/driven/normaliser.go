package driven

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// RawText is extracted text handed to the engine by the application.
type RawText struct {
	// SourceName is the display name, usually the file name.
	SourceName string

	// URI is the original location.
	URI string

	// Content is the extracted text. Pages may be separated by form feeds.
	Content []byte
}

// Normaliser transforms raw extracted text into a Document.
type Normaliser interface {
	// Normalise cleans the text and computes document metadata.
	Normalise(ctx context.Context, raw *RawText) (*domain.Document, error)
}
