package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var indexNoRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Add documents and rebuild the index",
	Long: `Ingests files, or every supported file under a directory, then rebuilds
the index and saves it. Hidden files and directories are skipped.

Run without paths to rebuild from the documents already ingested.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexNoRebuild, "no-rebuild", false, "ingest without rebuilding the index")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if len(args) > 0 {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		if err := ingest(cmd, args); err != nil {
			return err
		}
		if indexNoRebuild {
			cmd.Println("Skipped rebuild. Run 'studymate index' to make the documents searchable.")
			return nil
		}
	}

	cmd.Println("Building index...")
	handle, err := retrievalService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	vectors := "keyword only"
	if handle.VectorsAvailable {
		vectors = fmt.Sprintf("%d vectors", handle.VectorCount)
	}
	cmd.Printf("Indexed %d chunks from %d sources (%d terms, %s).\n",
		handle.ChunkCount, handle.SourceCount, handle.VocabularySize, vectors)

	return saveIndex(cmd)
}

func ingest(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, fileFilter)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no supported files found")
	}

	summary, ingestErr := corpusService.AddFiles(cmd.Context(), files)
	cmd.Printf("Ingested %d documents (%d chunks).\n", len(summary.Documents), summary.Chunks)

	if len(summary.Failed) > 0 {
		p := newPrinter(cmd)
		failed := make([]string, 0, len(summary.Failed))
		for path := range summary.Failed {
			failed = append(failed, path)
		}
		sort.Strings(failed)
		cmd.Println(p.warn(fmt.Sprintf("%d files failed:", len(failed))))
		for _, path := range failed {
			cmd.Printf("  %s: %v\n", path, summary.Failed[path])
		}
	}

	if len(summary.Documents) == 0 && ingestErr != nil {
		return fmt.Errorf("ingest failed: %w", ingestErr)
	}
	return nil
}

// collectFiles expands directories into the files beneath them. Files named
// explicitly are kept even when the filter would reject them.
func collectFiles(paths []string, filter func(string) bool) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if filter == nil || filter(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk %s: %w", root, err)
		}
	}
	return files, nil
}
