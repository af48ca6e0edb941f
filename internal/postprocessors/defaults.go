package postprocessors

import (
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/postprocessors/chunker"
	"github.com/custodia-labs/studymate/internal/postprocessors/pages"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("pages", func(map[string]any) (driven.PostProcessor, error) {
		return pages.New(), nil
	})
}

// NewDefaultPipeline builds the standard chunker then pages pipeline.
func NewDefaultPipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	return r.BuildPipeline(
		Stage{Name: "chunker", Config: ChunkerConfig(settings)},
		Stage{Name: "pages"},
	)
}

// ChunkerConfig converts typed chunking settings into builder config.
func ChunkerConfig(settings domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"chunk_size":     settings.ChunkSize,
		"overlap":        settings.Overlap,
		"min_chunk_size": settings.MinChunkSize,
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): characters per chunk (default: 1000)
//   - overlap (int): characters shared by consecutive chunks (default: 200)
//   - min_chunk_size (int): shortest chunk kept before the last (default: 100)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if minSize, ok := getIntFromConfig(cfg, "min_chunk_size"); ok {
		opts = append(opts, chunker.WithMinChunkSize(minSize))
	}

	processor, err := chunker.New(opts...)
	if err != nil {
		return nil, err
	}
	return processor, nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles the int, int64 and float64 types TOML and JSON decoding produce.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
