// Package plaintext normalises extracted text into documents.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// PageSeparator separates pages in extracted text.
const PageSeparator = "\f"

var (
	// disallowed matches characters other than word characters, whitespace
	// and common punctuation.
	disallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s.,!?;:\-()\[\]"'/]`)

	camelJoin       = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	punctuationJoin = regexp.MustCompile(`([\p{L}\p{M}\p{N}_])([.!?])([\p{L}\p{M}\p{N}_])`)
)

// Normaliser cleans plain text, including text extracted from paged
// formats where pages are separated by form feeds.
type Normaliser struct {
	now func() time.Time
}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{now: time.Now}
}

// Normalise cleans each page and joins the non-empty ones with a space.
// Page boundaries are recorded only when the text has more than one page.
func (n *Normaliser) Normalise(ctx context.Context, raw *driven.RawText) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, raw.SourceName)
	}

	rawPages := strings.Split(string(raw.Content), PageSeparator)

	var (
		text  strings.Builder
		pages []domain.PageBoundary
	)
	for i, page := range rawPages {
		cleaned := CleanText(page)
		if cleaned == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		pages = append(pages, domain.PageBoundary{Page: i + 1, Offset: text.Len()})
		text.WriteString(cleaned)
	}

	doc := &domain.Document{
		SourceName: raw.SourceName,
		URI:        raw.URI,
		Title:      extractTitle(raw),
		Text:       text.String(),
		PageCount:  len(pages),
		CreatedAt:  n.now(),
	}
	if len(rawPages) > 1 {
		doc.Pages = pages
	}
	doc.ID = domain.DocumentID(doc.Text)
	doc.WordCount = len(strings.Fields(doc.Text))
	doc.CharCount = utf8.RuneCountInString(doc.Text)

	return doc, nil
}

// CleanText collapses whitespace, replaces unusual symbols with spaces,
// separates words glued together by extraction and drops stray single
// letters other than "a" and "i".
func CleanText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = strings.Join(strings.Fields(text), " ")
	text = disallowed.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	text = camelJoin.ReplaceAllString(text, "$1 $2")
	text = punctuationJoin.ReplaceAllString(text, "$1$2 $3")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) > 1 {
			kept = append(kept, w)
			continue
		}
		switch strings.ToLower(w) {
		case "a", "i":
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// extractTitle derives a human-readable title from the source name.
func extractTitle(raw *driven.RawText) string {
	name := raw.SourceName
	if name == "" {
		name = raw.URI
	}
	filename := filepath.Base(name)
	if ext := filepath.Ext(filename); ext != "" && ext != filename {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename
}
