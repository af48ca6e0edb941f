package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	debugJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var debugCmd = &cobra.Command{
	Use:   "debug [query]",
	Short: "Show how a query matches the vocabulary",
	Long: `Shows the tokens a query is reduced to and which of them appear in the
indexed vocabulary. Useful when a search returns nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runDebug,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	debugCmd.Flags().BoolVar(&debugJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(debugCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	stats := retrievalService.Stats()
	if statsJSON {
		return writeJSON(cmd, stats)
	}

	p := newPrinter(cmd)
	cmd.Println(p.title("Index"))
	cmd.Printf("  State:         %s\n", stats.State)
	cmd.Printf("  Documents:     %d\n", stats.DocumentCount)
	cmd.Printf("  Sources:       %d\n", stats.SourceCount)
	cmd.Printf("  Chunks:        %d\n", stats.ChunkCount)
	cmd.Printf("  Vocabulary:    %d terms\n", stats.VocabularySize)
	cmd.Printf("  Tokens:        %d (%.1f per chunk)\n", stats.TotalTokens, stats.AverageChunkLen)
	if stats.VectorsAvailable {
		cmd.Printf("  Vectors:       %d\n", stats.VectorCount)
	} else {
		cmd.Printf("  Vectors:       %s\n", p.muted("disabled"))
	}
	cmd.Printf("  Generation:    %d\n", stats.Generation)
	cmd.Println()
	cmd.Println(p.title("Search defaults"))
	cmd.Printf("  Results:        %d\n", stats.TopK)
	cmd.Printf("  Min similarity: %.2f\n", stats.MinSimilarity)
	return nil
}

func runDebug(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	dbg := retrievalService.Debug(args[0])
	if debugJSON {
		return writeJSON(cmd, dbg)
	}

	cmd.Printf("Query:            %s\n", dbg.Query)
	cmd.Printf("Tokens:           %s\n", joinOrNone(dbg.Tokens))
	cmd.Printf("In vocabulary:    %s\n", joinOrNone(dbg.InVocabulary))
	cmd.Printf("Not found:        %s\n", joinOrNone(dbg.NotInVocabulary))
	if len(dbg.VocabularySample) > 0 {
		cmd.Printf("Vocabulary sample: %s\n", strings.Join(dbg.VocabularySample, ", "))
	}
	return nil
}

func joinOrNone(words []string) string {
	if len(words) == 0 {
		return "(none)"
	}
	return strings.Join(words, ", ")
}
