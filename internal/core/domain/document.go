package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PageBoundary marks where a page starts within a document's text.
type PageBoundary struct {
	// Page is the 1-based page number.
	Page int

	// Offset is the byte offset in Document.Text where the page begins.
	Offset int
}

// Document represents the extracted text of one ingested file.
// It is created once and never modified; removal happens through the corpus.
type Document struct {
	// ID is the content hash of Text.
	ID string

	// SourceName is the display name of the originating file.
	SourceName string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Text is the full extracted text after normalisation.
	Text string

	// Pages lists page start offsets in ascending order. Empty for unpaged text.
	Pages []PageBoundary

	// PageCount is the number of pages with text.
	PageCount int

	// WordCount is the number of whitespace separated words in Text.
	WordCount int

	// CharCount is the number of characters in Text.
	CharCount int

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// PageAt returns the page containing the given offset, or 0 when the
// document has no page boundaries.
func (d *Document) PageAt(offset int) int {
	page := 0
	for _, p := range d.Pages {
		if p.Offset > offset {
			break
		}
		page = p.Page
	}
	return page
}

// Chunk is a bounded, overlapping segment of a document's text.
// Chunks are immutable and are the unit indexed by both indexes.
type Chunk struct {
	// ID is derived from DocumentID and Index (see ChunkID).
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SourceName is copied from the parent document for result attribution.
	SourceName string

	// Index is the ordinal position within the document.
	Index int

	// Text is the trimmed chunk text.
	Text string

	// StartOffset is the byte offset in the document where the slice began.
	StartOffset int

	// EndOffset is the byte offset in the document where the slice ended.
	EndOffset int

	// WordCount is the number of whitespace separated words in Text.
	WordCount int

	// CharCount is the number of characters in Text.
	CharCount int

	// PageNumber is the page holding StartOffset, 0 when unknown.
	PageNumber int
}

// DocumentID returns the content hash used as a document identifier.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}

// ChunkID builds the identifier of the index-th chunk of a document.
// The index is zero padded so lexical ordering matches document order.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%06d", documentID, index)
}
