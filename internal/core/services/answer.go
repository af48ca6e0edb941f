package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
	"github.com/custodia-labs/studymate/internal/metrics"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

const (
	// minQuestionLength is the shortest question that is searched.
	minQuestionLength = 3

	// lowConfidenceScore is the mean combined score below which an answer
	// is hedged.
	lowConfidenceScore = 0.3

	// maxSources is the number of results cited with an answer.
	maxSources = 5

	previewLength       = 250
	fallbackExcerpt     = 300
	minKeySentenceChars = 20
)

const (
	answerNoResults = "I couldn't find relevant information in your documents to answer this question. " +
		"Try rephrasing your question or uploading more relevant materials."
	answerTooShort      = "Please provide a more specific question."
	answerSingle        = "Based on your document **%s**, here's what I found:\n\n%s"
	answerMultiple      = "I found relevant information from %d sources in your documents:\n\n%s"
	answerLowConfidence = "I found some potentially relevant information, but the match isn't very strong:\n\n%s" +
		"\n\n*Consider rephrasing your question for better results.*"

	suggestNoResults = "Try using different keywords or upload more relevant documents."
	suggestRephrase  = "Try rephrasing your question with more specific terms."
	suggestBroader   = "Your question was very specific. Try broader terms to find more information."
	suggestGood      = "Great question! I found relevant information from multiple sources."

	answerSystemPrompt = "You answer questions about the user's study documents. " +
		"Use only the numbered context passages. Cite passages by their source name. " +
		"If the context does not contain the answer, say so."
)

var sourceSeparator = "\n" + strings.Repeat("─", 60) + "\n"

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// questionTemplates phrase suggested questions around a vocabulary term.
var questionTemplates = []string{
	"What is %s?",
	"How does %s work?",
	"What are the benefits of %s?",
	"Explain %s in detail",
	"What is the purpose of %s?",
}

// AnswerService answers questions from retrieved context, with a language
// model when one is configured and extractively otherwise.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.RetrievalSettings
}

// NewAnswerService creates a new answer service.
// The llmService parameter is optional (can be nil).
func NewAnswerService(
	retrieval driving.RetrievalService,
	llmService driven.LLMService,
	settings domain.RetrievalSettings,
) *AnswerService {
	return &AnswerService{
		retrieval: retrieval,
		llm:       llmService,
		settings:  settings,
	}
}

// SetPromptStore sets the store the system prompt is loaded from.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// systemPrompt returns the customised system prompt, or the built-in one.
func (s *AnswerService) systemPrompt() string {
	if s.prompts == nil {
		return answerSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || prompt == "" {
		logger.Debug("Using built-in system prompt: %v", err)
		return answerSystemPrompt
	}
	return prompt
}

// Ask searches for the question and composes an answer with its sources.
// A failed generation falls back to the extractive answer.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	logger.Section("Answer")
	question = strings.TrimSpace(question)

	if len([]rune(question)) < minQuestionLength {
		return &domain.Answer{
			Question: question,
			Text:     answerTooShort,
			Outcome:  domain.RetrievalOutcome{Query: question, QueryTerms: []string{}, Results: []domain.SearchResult{}},
			Sources:  []domain.SourceRef{},
			Insights: insights(nil),
		}, nil
	}

	outcome, err := s.retrieval.Search(ctx, question, opts.Search)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}

	answer := &domain.Answer{
		Question: question,
		Outcome:  outcome,
		Sources:  prepareSources(outcome.Results),
		Insights: insights(outcome.Results),
	}

	if s.llm != nil && !opts.Extractive && len(outcome.Results) > 0 {
		text, err := s.generate(ctx, question, outcome.Results)
		if err == nil {
			answer.Text = text
			answer.Generated = true
			return answer, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Generation failed, using extractive answer: %v", err)
	}

	answer.Text = extractiveAnswer(outcome.Results, outcome.QueryTerms)
	logger.Info("Answered with %d results, confidence %.1f", len(outcome.Results), outcome.Confidence)
	return answer, nil
}

func (s *AnswerService) generate(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	prompt := buildPrompt(question, results, s.settings.Answer.MaxContextResults, s.settings.Answer.MaxContextChars)
	logger.Debug("Prompt: %d characters", len(prompt))

	start := time.Now()
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.settings.LLM.MaxTokens,
		Temperature: s.settings.LLM.Temperature,
		System:      s.systemPrompt(),
	})
	logger.Elapsed("generation", start)

	status := "ok"
	switch {
	case err != nil:
		err = fmt.Errorf("%w: %s: %w", domain.ErrGenerationFailure, s.llm.ModelName(), err)
	case strings.TrimSpace(text) == "":
		err = fmt.Errorf("%w: %s returned an empty answer", domain.ErrGenerationFailure, s.llm.ModelName())
	}
	if err != nil {
		status = "error"
	}
	metrics.GenerationRequestsTotal.WithLabelValues(s.llm.ModelName(), status).Inc()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// SuggestQuestions proposes up to limit questions built from longer terms
// of the indexed vocabulary.
func (s *AnswerService) SuggestQuestions(limit int) []string {
	if limit <= 0 || s.retrieval.State() == domain.IndexStateEmpty {
		return []string{}
	}
	sample := s.retrieval.Debug("").VocabularySample
	if len(sample) > limit {
		sample = sample[:limit]
	}

	suggestions := make([]string, 0, limit)
	for _, term := range sample {
		if len([]rune(term)) <= 4 {
			continue
		}
		tmpl := questionTemplates[len(suggestions)%len(questionTemplates)]
		suggestions = append(suggestions, fmt.Sprintf(tmpl, term))
	}
	return suggestions
}

// buildPrompt numbers the top results as context, stopping before the
// character budget is exceeded. The first passage is always included.
func buildPrompt(question string, results []domain.SearchResult, maxResults, maxChars int) string {
	var ctxText strings.Builder
	for i := range results {
		if maxResults > 0 && i >= maxResults {
			break
		}
		r := &results[i]
		passage := fmt.Sprintf("[%d] %s", i+1, r.SourceName)
		if r.PageNumber > 0 {
			passage += fmt.Sprintf(", page %d", r.PageNumber)
		}
		passage += ":\n" + r.Text + "\n\n"

		if i > 0 && maxChars > 0 && ctxText.Len()+len(passage) > maxChars {
			break
		}
		ctxText.WriteString(passage)
	}

	text := ctxText.String()
	if maxChars > 0 && len(text) > maxChars {
		text = truncateRunes(text, maxChars)
	}
	return "Context:\n\n" + text + "Question: " + question + "\nAnswer:"
}

// extractiveAnswer picks a template by result count and mean score.
func extractiveAnswer(results []domain.SearchResult, queryTerms []string) string {
	if len(results) == 0 {
		return answerNoResults
	}

	if len(results) == 1 {
		r := &results[0]
		return fmt.Sprintf(answerSingle, r.SourceName, keySentences(r.Text, queryTerms, 3)) +
			fmt.Sprintf("\n\n*Relevance Score: %.2f*", r.CombinedScore)
	}

	if meanScore(results) < lowConfidenceScore {
		parts := make([]string, 0, 2)
		for i := 0; i < len(results) && i < 2; i++ {
			parts = append(parts, fmt.Sprintf("**%d. From %s:**\n%s",
				i+1, results[i].SourceName, keySentences(results[i].Text, queryTerms, 2)))
		}
		return fmt.Sprintf(answerLowConfidence, strings.Join(parts, sourceSeparator))
	}

	// Best result per source among the top five, sources in first-seen order.
	var order []string
	best := make(map[string]*domain.SearchResult)
	for i := 0; i < len(results) && i < maxSources; i++ {
		r := &results[i]
		cur, ok := best[r.SourceName]
		if !ok {
			order = append(order, r.SourceName)
		}
		if !ok || r.CombinedScore > cur.CombinedScore {
			best[r.SourceName] = r
		}
	}

	parts := make([]string, 0, len(order))
	for i, name := range order {
		r := best[name]
		parts = append(parts, fmt.Sprintf("**%d. From %s** (Score: %.2f)\n%s",
			i+1, name, r.CombinedScore, keySentences(r.Text, queryTerms, 3)))
	}

	sources := uniqueSources(results)
	return fmt.Sprintf(answerMultiple, sources, strings.Join(parts, sourceSeparator)) +
		fmt.Sprintf("\n\n*Found %d relevant sections across %d documents.*", len(results), sources)
}

// keySentences returns up to limit sentences containing the most query
// terms, joined with ". ". Without any match it returns the start of text.
func keySentences(text string, queryTerms []string, limit int) string {
	type scored struct {
		sentence string
		score    int
	}

	var candidates []scored
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < minKeySentenceChars {
			continue
		}
		lower := strings.ToLower(sentence)
		score := 0
		for _, term := range queryTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{sentence, score})
		}
	}

	if len(candidates) == 0 {
		return truncateRunes(text, fallbackExcerpt) + "..."
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	top := make([]string, len(candidates))
	for i, c := range candidates {
		top[i] = c.sentence
	}
	return strings.Join(top, ". ") + "."
}

// prepareSources cites the top results with short previews.
func prepareSources(results []domain.SearchResult) []domain.SourceRef {
	n := min(len(results), maxSources)
	sources := make([]domain.SourceRef, 0, n)
	for i := 0; i < n; i++ {
		r := &results[i]
		preview := r.Text
		if len([]rune(preview)) > previewLength {
			preview = truncateRunes(preview, previewLength) + "..."
		}
		sources = append(sources, domain.SourceRef{
			SourceName:   r.SourceName,
			ChunkID:      r.ChunkID,
			ChunkIndex:   r.ChunkIndex,
			PageNumber:   r.PageNumber,
			Score:        r.CombinedScore,
			Similarity:   r.BaseScore,
			MatchedTerms: r.MatchedTermCount,
			Explanation:  r.Explanation,
			Preview:      preview,
			WordCount:    r.WordCount,
		})
	}
	return sources
}

func insights(results []domain.SearchResult) domain.Insights {
	if len(results) == 0 {
		return domain.Insights{
			Coverage:   "No relevant information found",
			Suggestion: suggestNoResults,
		}
	}

	sources := uniqueSources(results)
	in := domain.Insights{
		SourcesSearched: sources,
		Coverage:        fmt.Sprintf("Found information across %d document(s)", sources),
	}
	for i := range results {
		in.TotalContentWords += results[i].WordCount
		if results[i].CombinedScore > in.BestMatchScore {
			in.BestMatchScore = results[i].CombinedScore
		}
	}

	switch {
	case meanScore(results) < lowConfidenceScore:
		in.Suggestion = suggestRephrase
	case len(results) == 1:
		in.Suggestion = suggestBroader
	default:
		in.Suggestion = suggestGood
	}
	return in
}

func meanScore(results []domain.SearchResult) float64 {
	var sum float64
	for i := range results {
		sum += results[i].CombinedScore
	}
	return sum / float64(len(results))
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
