package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchMode_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		mode     SearchMode
		expected bool
	}{
		{"auto is valid", SearchModeAuto, true},
		{"lexical is valid", SearchModeLexical, true},
		{"vector is valid", SearchModeVector, true},
		{"hybrid is valid", SearchModeHybrid, true},
		{"unknown mode is invalid", SearchMode("semantic"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mode.IsValid())
		})
	}
}

func TestSearchMode_String(t *testing.T) {
	assert.Equal(t, "auto", SearchModeAuto.String())
	assert.Equal(t, "hybrid", SearchModeHybrid.String())
}

func TestQuery_Phrase(t *testing.T) {
	q := Query{Terms: []string{"binary", "search", "tree"}}
	assert.Equal(t, "binary search tree", q.Phrase())
	assert.Empty(t, Query{}.Phrase())
}

func TestRetrievalOutcome_SourceNames(t *testing.T) {
	outcome := RetrievalOutcome{
		Results: []SearchResult{
			{SourceName: "b.pdf"},
			{SourceName: "a.pdf"},
			{SourceName: "b.pdf"},
		},
	}

	assert.Equal(t, []string{"b.pdf", "a.pdf"}, outcome.SourceNames())
	assert.Empty(t, RetrievalOutcome{}.SourceNames())
}
