// Command studymate indexes study documents and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/studymate/internal/adapters/driven/ai"
	"github.com/custodia-labs/studymate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/studymate/internal/adapters/driving/cli"
	"github.com/custodia-labs/studymate/internal/core/services"
	"github.com/custodia-labs/studymate/internal/logger"
	"github.com/custodia-labs/studymate/internal/metrics"
	"github.com/custodia-labs/studymate/internal/normalisers"
	"github.com/custodia-labs/studymate/internal/postprocessors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settingsStore, err := file.NewSettingsStore(os.Getenv("STUDYMATE_HOME"))
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open corpus store: %w", err)
	}
	defer store.Close()

	aiServices := ai.Init(ctx, settings, true)
	defer aiServices.Close()
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	registry := normalisers.NewDefaultRegistry()
	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return fmt.Errorf("create chunking pipeline: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(settingsStore.Dir(), "prompts"))
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	retrieval := services.NewRetrievalService(store, aiServices.EmbeddingService, settings)
	corpus := services.NewCorpusService(store, registry, pipeline, retrieval)
	answer := services.NewAnswerService(retrieval, aiServices.LLMService, settings)
	answer.SetPromptStore(prompts)

	metrics.Register()
	loadIndex(ctx, retrieval, corpus, settings.Storage.IndexPath)

	cli.SetServices(cli.Services{
		Retrieval:  retrieval,
		Corpus:     corpus,
		Answer:     answer,
		Settings:   services.NewSettingsService(settingsStore, ai.NewConfigValidator()),
		IndexPath:  settings.Storage.IndexPath,
		FileFilter: registry.Supports,
	})
	return cli.Execute(ctx)
}

// loadIndex restores the saved index. Without one, an index is built from
// the stored documents so searches work straight away.
func loadIndex(ctx context.Context, retrieval *services.RetrievalService, corpus *services.CorpusService, path string) {
	_, err := retrieval.LoadIndex(ctx, path)
	if err == nil {
		return
	}
	logger.Debug("No saved index at %s: %v", path, err)

	docs, err := corpus.ListDocuments(ctx)
	if err != nil || len(docs) == 0 {
		return
	}
	if _, err := retrieval.Rebuild(ctx); err != nil {
		logger.Warn("Rebuilding index failed: %v", err)
		return
	}
	if err := retrieval.SaveIndex(ctx, path); err != nil {
		logger.Warn("Saving index failed: %v", err)
	}
}
