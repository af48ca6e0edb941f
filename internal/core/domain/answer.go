package domain

// AskOptions configures answer synthesis.
type AskOptions struct {
	// Search configures the underlying retrieval.
	Search SearchOptions

	// Extractive skips the language model even when one is configured.
	Extractive bool
}

// SourceRef cites one result used to build an answer.
type SourceRef struct {
	SourceName   string  `json:"filename"`
	ChunkID      string  `json:"chunk_id"`
	ChunkIndex   int     `json:"chunk_index"`
	PageNumber   int     `json:"page_number,omitempty"`
	Score        float64 `json:"enhanced_score"`
	Similarity   float64 `json:"similarity_score"`
	MatchedTerms int     `json:"matched_terms"`
	Explanation  string  `json:"relevance_explanation"`
	Preview      string  `json:"text_preview"`
	WordCount    int     `json:"word_count"`
}

// Insights summarises what a retrieval found, for display next to an answer.
type Insights struct {
	SourcesSearched   int     `json:"sources_searched"`
	TotalContentWords int     `json:"total_content_words"`
	BestMatchScore    float64 `json:"best_match_score"`
	Coverage          string  `json:"coverage_analysis"`
	Suggestion        string  `json:"suggestion"`
}

// Answer is a synthesized reply to a question.
type Answer struct {
	Question string           `json:"question"`
	Text     string           `json:"answer"`
	Outcome  RetrievalOutcome `json:"outcome"`
	Sources  []SourceRef      `json:"sources"`
	Insights Insights         `json:"insights"`

	// Generated is true when the text came from the language model.
	Generated bool `json:"generated"`
}
