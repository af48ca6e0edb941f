package domain

import "strings"

// SearchMode selects which indexes a search consults.
type SearchMode string

// Available search modes.
const (
	// SearchModeAuto uses every index the live snapshot provides.
	SearchModeAuto SearchMode = ""

	// SearchModeLexical uses only the TF-IDF index.
	SearchModeLexical SearchMode = "lexical"

	// SearchModeVector uses only the vector index.
	SearchModeVector SearchMode = "vector"

	// SearchModeHybrid merges lexical and vector candidates.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeAuto, SearchModeLexical, SearchModeVector, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	if m == SearchModeAuto {
		return "auto"
	}
	return string(m)
}

// SearchOptions configures a search query.
// Zero values fall back to the engine settings.
type SearchOptions struct {
	// K is the maximum number of results.
	K int

	// MinSimilarity is the base score a candidate must exceed.
	// Nil uses the configured default.
	MinSimilarity *float64

	// Mode restricts the indexes consulted.
	Mode SearchMode
}

// Query is a question prepared for retrieval.
type Query struct {
	// Text is the original question.
	Text string

	// Terms are the question tokens after stop-word removal, in order.
	Terms []string

	// Embedding is the question embedding, nil when unavailable.
	Embedding []float32
}

// Phrase returns the stop-word-stripped query string.
func (q Query) Phrase() string {
	return strings.Join(q.Terms, " ")
}

// Candidate is a raw hit produced by a single index.
type Candidate struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// Score is the raw similarity in that index.
	Score float64
}

// SearchResult represents a single ranked hit.
type SearchResult struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	SourceName string `json:"source_name"`
	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number,omitempty"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`

	// LexicalScore is the TF-IDF cosine similarity, 0 if not a lexical candidate.
	LexicalScore float64 `json:"lexical_score"`

	// VectorScore is the embedding cosine similarity, 0 if not a vector candidate.
	VectorScore float64 `json:"vector_score"`

	// BaseScore is the score compared against the similarity threshold.
	BaseScore float64 `json:"base_score"`

	// CombinedScore is BaseScore after the re-ranking boosts.
	CombinedScore float64 `json:"combined_score"`

	MatchedTermCount int    `json:"matched_term_count"`
	Rank             int    `json:"rank"`
	Explanation      string `json:"explanation"`
}

// RetrievalOutcome is the ordered result list plus its confidence.
type RetrievalOutcome struct {
	Query      string         `json:"query"`
	QueryTerms []string       `json:"query_terms"`
	Results    []SearchResult `json:"results"`

	// Confidence is in [0, 100].
	Confidence float64 `json:"confidence"`

	UniqueSourceCount int `json:"unique_source_count"`

	// NoDocuments is set when nothing has been indexed yet.
	NoDocuments bool `json:"no_documents,omitempty"`

	// Stale is set when the corpus changed after the live snapshot was built.
	Stale bool `json:"stale,omitempty"`

	// Mode is the mode actually used.
	Mode SearchMode `json:"mode"`

	// EmbeddingFallback is set when the query embedding failed and
	// ranking fell back to the lexical index.
	EmbeddingFallback bool `json:"embedding_fallback,omitempty"`
}

// SourceNames returns the distinct source names in result order.
func (o RetrievalOutcome) SourceNames() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range o.Results {
		name := o.Results[i].SourceName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// QueryDebug describes how a question was tokenised against the vocabulary.
type QueryDebug struct {
	Query            string   `json:"original_query"`
	Tokens           []string `json:"processed_tokens"`
	InVocabulary     []string `json:"tokens_in_vocabulary"`
	NotInVocabulary  []string `json:"tokens_not_found"`
	VocabularySample []string `json:"vocabulary_sample"`
}
