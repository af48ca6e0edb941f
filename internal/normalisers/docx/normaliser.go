// Package docx extracts the text of Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser reads word/document.xml out of a DOCX archive.
type Normaliser struct {
	text *plaintext.Normaliser
}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{text: plaintext.New()}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise extracts paragraph text and normalises it. The core
// properties title is used when set.
func (n *Normaliser) Normalise(ctx context.Context, raw *driven.RawText) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a DOCX archive", domain.ErrInvalidInput, raw.SourceName)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.SourceName, err)
	}

	doc, err := n.text.Normalise(ctx, &driven.RawText{
		SourceName: raw.SourceName,
		URI:        raw.URI,
		Content:    []byte(parseDocumentXML(body)),
	})
	if err != nil {
		return nil, err
	}
	if title := coreTitle(reader); title != "" {
		doc.Title = title
	}
	return doc, nil
}

// readPart returns the content of one archive member, or nil when absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text  []textElement `xml:"t"`
	Break []breakElement `xml:"br"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type breakElement struct {
	Type string `xml:"type,attr"`
}

// parseDocumentXML joins paragraphs with newlines. Explicit page breaks
// become form feeds so page numbers survive.
func parseDocumentXML(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, br := range r.Break {
				if br.Type == "page" {
					result.WriteString(plaintext.PageSeparator)
				}
			}
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(result.String())
}

type coreXML struct {
	Title string `xml:"title"`
}

// coreTitle reads the title from docProps/core.xml.
func coreTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil || len(content) == 0 {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
