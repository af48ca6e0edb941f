package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [source-name]",
	Short: "Remove a source from the index",
	Long: `Deletes every document ingested from a source and drops its chunks from
the index. The source name is the file name shown in search results.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	removed, err := corpusService.RemoveSource(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}
	cmd.Printf("Removed %s (%d documents).\n", args[0], removed)

	return saveIndex(cmd)
}

// saveIndex persists the live index when a path is configured.
func saveIndex(cmd *cobra.Command) error {
	if indexPath == "" || retrievalService == nil {
		return nil
	}
	if err := retrievalService.SaveIndex(cmd.Context(), indexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}
