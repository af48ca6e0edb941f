package normalisers

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/normalisers/docx"
	"github.com/custodia-labs/studymate/internal/normalisers/html"
	"github.com/custodia-labs/studymate/internal/normalisers/markdown"
	"github.com/custodia-labs/studymate/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.Normaliser = (*Registry)(nil)

// Registry dispatches to a normaliser by the extension of the source name.
// Sources with an unregistered extension go to the fallback.
type Registry struct {
	byExt    map[string]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry(fallback driven.Normaliser) *Registry {
	return &Registry{
		byExt:    make(map[string]driven.Normaliser),
		fallback: fallback,
	}
}

// NewDefaultRegistry registers the plain text, Markdown, HTML and DOCX
// normalisers. Plain text is the fallback.
func NewDefaultRegistry() *Registry {
	text := plaintext.New()
	r := NewRegistry(text)
	r.Register(text, ".txt", ".text")
	md := markdown.New()
	r.Register(md, md.Extensions()...)
	h := html.New()
	r.Register(h, h.Extensions()...)
	d := docx.New()
	r.Register(d, d.Extensions()...)
	return r
}

// Register maps extensions to a normaliser, replacing earlier mappings.
func (r *Registry) Register(n driven.Normaliser, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Normalise uses the normaliser registered for the source's extension.
func (r *Registry) Normalise(ctx context.Context, raw *driven.RawText) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	name := raw.SourceName
	if name == "" {
		name = raw.URI
	}
	if n, ok := r.byExt[strings.ToLower(filepath.Ext(name))]; ok {
		return n.Normalise(ctx, raw)
	}
	if r.fallback == nil {
		return nil, domain.ErrInvalidInput
	}
	return r.fallback.Normalise(ctx, raw)
}
