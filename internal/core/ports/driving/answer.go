package driving

import (
	"context"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// AnswerService turns a question into a cited answer.
type AnswerService interface {
	// Ask retrieves context for a question and synthesises an answer.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// SuggestQuestions proposes questions from the indexed vocabulary.
	SuggestQuestions(limit int) []string
}
