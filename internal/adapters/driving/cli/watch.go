package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/adapters/driving/watcher"
)

var (
	watchDebounce time.Duration
	watchRebuild  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Keep the index in sync with directories",
	Long: `Watches directories for changed files. Changed files are ingested again,
deleted files are removed, and the index is rebuilt and saved after each
quiet period. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before changes are applied")
	watchCmd.Flags().BoolVar(&watchRebuild, "rebuild", true, "rebuild and save the index after changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if corpusService == nil || retrievalService == nil {
		return errors.New("corpus and retrieval services not configured")
	}

	w, err := watcher.New(corpusService, retrievalService, watcher.Config{
		Debounce:  watchDebounce,
		Filter:    fileFilter,
		Rebuild:   watchRebuild,
		IndexPath: indexPath,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range args {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("cannot watch %s: %w", dir, err)
		}
	}

	p := newPrinter(cmd)
	w.OnBatch(func(b watcher.Batch) {
		printBatch(p, b)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %d directories. Press Ctrl+C to stop.\n", len(args))
	return w.Run(ctx)
}

func printBatch(p *printer, b watcher.Batch) {
	ts := time.Now().Format("15:04:05")
	for _, path := range b.Updated {
		p.cmd.Printf("%s updated %s\n", p.muted(ts), path)
	}
	for _, path := range b.Removed {
		p.cmd.Printf("%s removed %s\n", p.muted(ts), path)
	}
	for path, err := range b.Failed {
		p.cmd.Println(p.warn(fmt.Sprintf("%s failed %s: %v", ts, path, err)))
	}
	if b.Err != nil {
		p.cmd.Println(p.warn(fmt.Sprintf("%s rebuild failed: %v", ts, b.Err)))
	} else if b.Rebuilt {
		p.cmd.Printf("%s index rebuilt\n", p.muted(ts))
	}
}
