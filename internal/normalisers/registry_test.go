package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

func TestRegistry_Extensions(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{".docx", ".htm", ".html", ".markdown", ".md", ".text", ".txt"}, r.Extensions())
}

func TestRegistry_Supports(t *testing.T) {
	r := NewDefaultRegistry()

	assert.True(t, r.Supports("notes/week1.md"))
	assert.True(t, r.Supports("LECTURE.TXT"))
	assert.True(t, r.Supports("page.HTML"))
	assert.False(t, r.Supports("slides.pdf"))
	assert.False(t, r.Supports("Makefile"))
}

func TestRegistry_Normalise_Dispatch(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		source   string
		content  string
		wantText string
	}{
		{"markdown", "a.md", "# Title\n\nSome **bold** words.", "Title Some bold words."},
		{"html", "a.html", "<p>Some <b>bold</b> words.</p>", "Some bold words."},
		{"plain text", "a.txt", "Some bold words.", "Some bold words."},
		{"unknown extension uses fallback", "a.log", "Some bold words.", "Some bold words."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Normalise(ctx, &driven.RawText{SourceName: tt.source, Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, doc.Text)
		})
	}
}

func TestRegistry_Normalise_NoFallback(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Normalise(context.Background(), &driven.RawText{SourceName: "a.txt", Content: []byte("text")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
