package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

var (
	searchLimit         int
	searchMode          string
	searchMinSimilarity float64
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks passages from your documents against a question.
Combines keyword (TF-IDF) and semantic (vector) search when an embedding
provider is configured, and keyword search alone otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "auto", "search mode: auto, lexical, vector or hybrid")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", -1,
		"minimum base score in [0, 1] (negative uses the configured value)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts, err := searchOptions(searchLimit, searchMode, searchMinSimilarity)
	if err != nil {
		return err
	}

	outcome, err := retrievalService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return writeJSON(cmd, outcome)
	}
	printOutcome(newPrinter(cmd), &outcome)
	return nil
}

// searchOptions builds options from flag values. A negative minimum
// similarity leaves the configured default in place.
func searchOptions(limit int, mode string, minSimilarity float64) (domain.SearchOptions, error) {
	m, err := parseMode(mode)
	if err != nil {
		return domain.SearchOptions{}, err
	}
	if limit <= 0 {
		return domain.SearchOptions{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}
	opts := domain.SearchOptions{K: limit, Mode: m}
	if minSimilarity >= 0 {
		if minSimilarity > 1 {
			return domain.SearchOptions{}, fmt.Errorf("%w: min-similarity must be in [0, 1]", domain.ErrInvalidInput)
		}
		v := minSimilarity
		opts.MinSimilarity = &v
	}
	return opts, nil
}

func parseMode(s string) (domain.SearchMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return domain.SearchModeAuto, nil
	}
	mode := domain.SearchMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, s)
	}
	return mode, nil
}

func printOutcome(p *printer, outcome *domain.RetrievalOutcome) {
	if len(outcome.Results) == 0 {
		p.outcomeNotes(outcome)
		p.cmd.Println("No results found.")
		return
	}

	p.cmd.Println(p.title("Results:"))
	p.cmd.Println()
	for i := range outcome.Results {
		r := &outcome.Results[i]
		p.cmd.Printf("  [%d] %s (%.3f)\n", r.Rank, p.source(location(r.SourceName, r.PageNumber)), r.CombinedScore)
		p.cmd.Printf("      %s\n", preview(r.Text, previewLength))
		if r.Explanation != "" {
			p.cmd.Printf("      %s\n", p.muted(r.Explanation))
		}
		p.cmd.Println()
	}

	p.cmd.Printf("Confidence: %s  Sources: %d  Mode: %s\n",
		p.confidence(outcome.Confidence), outcome.UniqueSourceCount, outcome.Mode)
	p.outcomeNotes(outcome)
}
