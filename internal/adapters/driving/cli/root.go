// Package cli provides the studymate command line interface.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Services wired in by main.
var (
	retrievalService driving.RetrievalService
	corpusService    driving.CorpusService
	answerService    driving.AnswerService
	settingsService  driving.SettingsService

	// indexPath is where the index is saved after it changes.
	indexPath string

	// fileFilter selects the files picked up from directories.
	fileFilter func(path string) bool
)

// Services holds the services the commands run against.
// Any of them may be nil; commands needing a missing one fail.
type Services struct {
	Retrieval driving.RetrievalService
	Corpus    driving.CorpusService
	Answer    driving.AnswerService
	Settings  driving.SettingsService

	// IndexPath is where the index is saved. Empty disables saving.
	IndexPath string

	// FileFilter selects files when a directory is indexed or watched.
	// Nil accepts every file.
	FileFilter func(path string) bool
}

// SetServices configures the services used by all commands.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	corpusService = s.Corpus
	answerService = s.Answer
	settingsService = s.Settings
	indexPath = s.IndexPath
	fileFilter = s.FileFilter
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "studymate",
	Short: "Search and question your study documents",
	Long: `StudyMate indexes your notes, lecture transcripts and readings and
answers questions about them with the passages they came from.

Add documents with 'studymate index', then use 'studymate search',
'studymate ask' or the interactive 'studymate tui'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. Output goes to stdout so it can be piped.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}
