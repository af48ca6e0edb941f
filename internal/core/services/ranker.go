package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/index/lexical"
	"github.com/custodia-labs/studymate/internal/index/vector"
)

// Re-ranking boosts.
const (
	phraseBoost     = 1.5
	shortChunkBoost = 1.1

	// shortChunkWords is the word count below which a chunk counts as focused.
	shortChunkWords = 200
)

// ChunkLookup resolves a chunk id to its record.
type ChunkLookup func(chunkID string) (domain.Chunk, bool)

// CandidateSet is the raw output of one retriever.
type CandidateSet struct {
	Retriever  string
	Candidates []domain.Candidate
}

// Ranker merges candidates from any number of retrievers and re-ranks
// them with term-match heuristics.
type Ranker struct {
	retrievers []driven.Retriever
	terms      driven.TermSource
	chunks     ChunkLookup

	// candidateLimit caps each retriever's candidates; zero means no cap.
	candidateLimit func(k int) int
}

// NewRanker creates a ranker. The term source may be nil, in which case
// chunk terms are derived from chunk text.
func NewRanker(chunks ChunkLookup, terms driven.TermSource, retrievers ...driven.Retriever) *Ranker {
	return &Ranker{
		retrievers: retrievers,
		terms:      terms,
		chunks:     chunks,
	}
}

// WithCandidateMultiplier caps each retriever at k*multiplier candidates.
func (r *Ranker) WithCandidateMultiplier(multiplier int) *Ranker {
	if multiplier > 0 {
		r.candidateLimit = func(k int) int { return k * multiplier }
	}
	return r
}

func (r *Ranker) limit(k int) int {
	if r.candidateLimit == nil || k <= 0 {
		return 0
	}
	return r.candidateLimit(k)
}

// Rank queries every retriever concurrently and merges their candidates.
func (r *Ranker) Rank(ctx context.Context, q domain.Query, k int, minSimilarity float64) ([]domain.SearchResult, error) {
	sets := make([]CandidateSet, len(r.retrievers))

	g, gctx := errgroup.WithContext(ctx)
	for i, ret := range r.retrievers {
		g.Go(func() error {
			hits, err := ret.Retrieve(gctx, q, r.limit(k), minSimilarity)
			if err != nil {
				return fmt.Errorf("%s retrieval: %w", ret.Name(), err)
			}
			sets[i] = CandidateSet{Retriever: ret.Name(), Candidates: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return r.Merge(q, sets, k, minSimilarity), nil
}

type merged struct {
	chunk   domain.Chunk
	lexical float64
	vector  float64
	base    float64
}

// Merge unions candidate sets by chunk id, drops chunks whose base score
// does not exceed minSimilarity, applies the boosts and returns the top k
// with ranks starting at 1. A k of zero keeps every result.
func (r *Ranker) Merge(q domain.Query, sets []CandidateSet, k int, minSimilarity float64) []domain.SearchResult {
	byID := make(map[string]*merged)
	for _, set := range sets {
		for _, c := range set.Candidates {
			m, ok := byID[c.ChunkID]
			if !ok {
				chunk, found := r.chunks(c.ChunkID)
				if !found {
					continue
				}
				m = &merged{chunk: chunk}
				byID[c.ChunkID] = m
			}
			switch set.Retriever {
			case lexical.Name:
				m.lexical = math.Max(m.lexical, c.Score)
			case vector.Name:
				m.vector = math.Max(m.vector, c.Score)
			}
			m.base = math.Max(m.base, c.Score)
		}
	}

	phrase := strings.ToLower(q.Phrase())
	results := make([]domain.SearchResult, 0, len(byID))
	for _, m := range byID {
		if !(m.base > minSimilarity) {
			continue
		}

		terms, tokenCount := r.chunkTerms(m.chunk)
		matched := matchedTerms(q.Terms, terms)
		combined := boost(m.base, phrase, m.chunk, len(q.Terms), len(matched), tokenCount)

		results = append(results, domain.SearchResult{
			ChunkID:          m.chunk.ID,
			DocumentID:       m.chunk.DocumentID,
			SourceName:       m.chunk.SourceName,
			ChunkIndex:       m.chunk.Index,
			PageNumber:       m.chunk.PageNumber,
			Text:             m.chunk.Text,
			WordCount:        wordCount(m.chunk),
			LexicalScore:     m.lexical,
			VectorScore:      m.vector,
			BaseScore:        m.base,
			CombinedScore:    combined,
			MatchedTermCount: len(matched),
			Explanation:      explain(matched),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (r *Ranker) chunkTerms(c domain.Chunk) (map[string]struct{}, int) {
	if r.terms != nil {
		if terms, n, ok := r.terms.Terms(c.ID); ok {
			return terms, n
		}
	}
	tokens := lexical.Tokenize(c.Text)
	terms := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		terms[t] = struct{}{}
	}
	return terms, len(tokens)
}

// boost applies, in order: the phrase boost, query coverage, the short
// chunk boost and term density. NaN and infinities collapse to zero.
func boost(base float64, phrase string, c domain.Chunk, queryTerms, matched, tokenCount int) float64 {
	score := base
	if phrase != "" && strings.Contains(strings.ToLower(c.Text), phrase) {
		score *= phraseBoost
	}
	if queryTerms > 0 {
		score *= 1 + float64(matched)/float64(queryTerms)
	}
	if wordCount(c) < shortChunkWords {
		score *= shortChunkBoost
	}
	if tokenCount > 0 {
		score *= 1 + float64(matched)/float64(tokenCount)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// matchedTerms lists the query terms present in the chunk, keeping
// query order and repeats.
func matchedTerms(queryTerms []string, chunkTerms map[string]struct{}) []string {
	var out []string
	for _, t := range queryTerms {
		if _, ok := chunkTerms[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func explain(matched []string) string {
	switch {
	case len(matched) == 0:
		return "No direct term matches found"
	case len(matched) == 1:
		return "Contains term: " + matched[0]
	case len(matched) <= 3:
		return "Contains terms: " + strings.Join(matched, ", ")
	default:
		return fmt.Sprintf("Contains terms: %s and %d more", strings.Join(matched[:3], ", "), len(matched)-3)
	}
}

func wordCount(c domain.Chunk) int {
	if c.WordCount > 0 {
		return c.WordCount
	}
	return len(strings.Fields(c.Text))
}
