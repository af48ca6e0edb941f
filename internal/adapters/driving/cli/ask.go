package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// suggestionCount is the number of questions suggested by a bare "ask".
const suggestionCount = 5

var (
	askLimit      int
	askMode       string
	askExtractive bool
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the passages that best match it, citing the
documents they came from. A configured language model writes the answer;
without one the best passages are quoted instead.

Run without a question to see suggested questions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 5, "maximum number of passages to consider")
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "auto", "search mode: auto, lexical, vector or hybrid")
	askCmd.Flags().BoolVar(&askExtractive, "extractive", false, "quote passages without the language model")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	if len(args) == 0 {
		return printSuggestions(cmd)
	}

	opts, err := searchOptions(askLimit, askMode, -1)
	if err != nil {
		return err
	}

	answer, err := answerService.Ask(cmd.Context(), args[0], domain.AskOptions{
		Search:     opts,
		Extractive: askExtractive,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return writeJSON(cmd, answer)
	}
	printAnswer(newPrinter(cmd), answer)
	return nil
}

func printSuggestions(cmd *cobra.Command) error {
	questions := answerService.SuggestQuestions(suggestionCount)
	if len(questions) == 0 {
		cmd.Println("No suggestions yet. Index some documents first.")
		return nil
	}
	cmd.Println("Try asking:")
	for _, q := range questions {
		cmd.Printf("  - %s\n", q)
	}
	return nil
}

func printAnswer(p *printer, answer *domain.Answer) {
	heading := "Answer"
	if !answer.Generated {
		heading = "Answer (extracted from your sources)"
	}
	p.cmd.Println(p.title(heading))
	p.cmd.Println()
	p.cmd.Println(answer.Text)
	p.cmd.Println()

	if len(answer.Sources) > 0 {
		p.cmd.Println(p.title("Sources:"))
		for i := range answer.Sources {
			src := &answer.Sources[i]
			p.cmd.Printf("  [%d] %s (%.3f)\n", i+1, p.source(location(src.SourceName, src.PageNumber)), src.Score)
		}
		p.cmd.Println()
	}

	p.cmd.Printf("Confidence: %s\n", p.confidence(answer.Outcome.Confidence))
	if answer.Insights.Suggestion != "" {
		p.cmd.Println(p.muted("Tip: " + answer.Insights.Suggestion))
	}
	p.outcomeNotes(&answer.Outcome)
}
