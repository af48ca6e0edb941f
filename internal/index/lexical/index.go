// Package lexical implements the TF-IDF index over chunk text.
//
// An Index is built once from a full chunk set and never mutated, so
// concurrent searches need no locking. A corpus change produces a new
// Index through Build.
package lexical

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Name identifies the lexical retriever.
const Name = "lexical"

type entry struct {
	chunkID string
	tf      map[string]float64
	terms   map[string]struct{}
	tokens  int

	// norm and tfNorm are the magnitudes of the TF-IDF and raw TF vectors.
	norm   float64
	tfNorm float64
}

// Index is an immutable TF-IDF index.
type Index struct {
	entries  []entry
	byID     map[string]int
	idf      map[string]float64
	postings map[string][]int
	total    int
}

var (
	_ driven.Retriever  = (*Index)(nil)
	_ driven.TermSource = (*Index)(nil)
)

// Build tokenizes every chunk and computes document frequencies, IDF
// weights and vector magnitudes. Chunks without any token are skipped and
// do not count towards the document total. Duplicate chunk ids are rejected.
func Build(ctx context.Context, chunks []domain.Chunk) (*Index, error) {
	idx := &Index{
		entries:  make([]entry, 0, len(chunks)),
		byID:     make(map[string]int, len(chunks)),
		idf:      make(map[string]float64),
		postings: make(map[string][]int),
	}

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := &chunks[i]
		if _, dup := idx.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate chunk id %s", domain.ErrInvalidInput, c.ID)
		}

		tokens := Tokenize(c.Text)
		if len(tokens) == 0 {
			continue
		}

		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}

		e := entry{
			chunkID: c.ID,
			tf:      make(map[string]float64, len(counts)),
			terms:   make(map[string]struct{}, len(counts)),
			tokens:  len(tokens),
		}
		pos := len(idx.entries)
		for term, n := range counts {
			e.tf[term] = float64(n) / float64(len(tokens))
			e.terms[term] = struct{}{}
			idx.postings[term] = append(idx.postings[term], pos)
		}

		idx.byID[c.ID] = pos
		idx.entries = append(idx.entries, e)
		idx.total += len(tokens)
	}

	n := float64(len(idx.entries))
	for term, posting := range idx.postings {
		idx.idf[term] = math.Log(n / float64(len(posting)))
	}

	for i := range idx.entries {
		e := &idx.entries[i]
		var sq, tfSq float64
		for _, term := range sortedKeys(e.tf) {
			tf := e.tf[term]
			w := tf * idx.idf[term]
			sq += w * w
			tfSq += tf * tf
		}
		e.norm = math.Sqrt(sq)
		e.tfNorm = math.Sqrt(tfSq)
	}

	return idx, nil
}

// Name returns the retriever name.
func (idx *Index) Name() string {
	return Name
}

// Retrieve implements driven.Retriever over the query's prepared terms.
func (idx *Index) Retrieve(ctx context.Context, q domain.Query, limit int, minScore float64) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := q.Terms
	if terms == nil {
		terms = Tokenize(q.Text)
	}
	return idx.SearchTerms(terms, limit, minScore), nil
}

// Search tokenizes the query and returns up to k candidates scoring above
// minScore. A k of zero returns every qualifying candidate.
func (idx *Index) Search(query string, k int, minScore float64) []domain.Candidate {
	return idx.SearchTerms(Tokenize(query), k, minScore)
}

// SearchTerms scores already tokenized query terms by cosine similarity.
// When every query term has zero IDF the TF-IDF query vector vanishes;
// scoring then uses raw term frequencies instead.
func (idx *Index) SearchTerms(terms []string, k int, minScore float64) []domain.Candidate {
	if idx == nil || len(idx.entries) == 0 || len(terms) == 0 {
		return nil
	}

	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		if _, ok := idx.postings[t]; ok {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	// Sums run in term order so identical indexes give bit-identical scores.
	order := sortedKeys(counts)
	query := make(map[string]float64, len(counts))
	var qNorm float64
	for _, t := range order {
		w := float64(counts[t]) / float64(len(terms)) * idx.idf[t]
		query[t] = w
		qNorm += w * w
	}

	useTF := qNorm == 0
	if useTF {
		qNorm = 0
		for _, t := range order {
			w := float64(counts[t]) / float64(len(terms))
			query[t] = w
			qNorm += w * w
		}
	}
	qNorm = math.Sqrt(qNorm)

	dots := make(map[int]float64)
	for _, t := range order {
		qw := query[t]
		for _, pos := range idx.postings[t] {
			dw := idx.entries[pos].tf[t]
			if !useTF {
				dw *= idx.idf[t]
			}
			dots[pos] += qw * dw
		}
	}

	hits := make([]domain.Candidate, 0, len(dots))
	for pos, dot := range dots {
		e := &idx.entries[pos]
		norm := e.norm
		if useTF {
			norm = e.tfNorm
		}
		if norm == 0 {
			continue
		}
		score := dot / (qNorm * norm)
		if math.IsNaN(score) || score <= minScore {
			continue
		}
		hits = append(hits, domain.Candidate{ChunkID: e.chunkID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Terms returns the distinct tokens of a chunk and its token count.
func (idx *Index) Terms(chunkID string) (map[string]struct{}, int, bool) {
	pos, ok := idx.byID[chunkID]
	if !ok {
		return nil, 0, false
	}
	e := &idx.entries[pos]
	return e.terms, e.tokens, true
}

// IDF returns the inverse document frequency of a term.
func (idx *Index) IDF(term string) (float64, bool) {
	v, ok := idx.idf[term]
	return v, ok
}

// Contains reports whether the term is in the vocabulary.
func (idx *Index) Contains(term string) bool {
	_, ok := idx.postings[term]
	return ok
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// VocabularySize returns the number of distinct terms.
func (idx *Index) VocabularySize() int {
	if idx == nil {
		return 0
	}
	return len(idx.postings)
}

// TotalTokens returns the token count summed over all chunks.
func (idx *Index) TotalTokens() int {
	if idx == nil {
		return 0
	}
	return idx.total
}

// AverageChunkTokens returns the mean number of tokens per indexed chunk.
func (idx *Index) AverageChunkTokens() float64 {
	if idx.Len() == 0 {
		return 0
	}
	return float64(idx.total) / float64(len(idx.entries))
}

// VocabularySample returns the first n terms in lexical order.
func (idx *Index) VocabularySample(n int) []string {
	if idx == nil {
		return nil
	}
	terms := make([]string, 0, len(idx.postings))
	for t := range idx.postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if n >= 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// Debug explains how a query is tokenized against the vocabulary.
func (idx *Index) Debug(query string) domain.QueryDebug {
	tokens := Tokenize(query)
	d := domain.QueryDebug{
		Query:            query,
		Tokens:           tokens,
		InVocabulary:     []string{},
		NotInVocabulary:  []string{},
		VocabularySample: idx.VocabularySample(20),
	}
	if d.Tokens == nil {
		d.Tokens = []string{}
	}
	for _, t := range tokens {
		if idx != nil && idx.Contains(t) {
			d.InVocabulary = append(d.InVocabulary, t)
		} else {
			d.NotInVocabulary = append(d.NotInVocabulary, t)
		}
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
