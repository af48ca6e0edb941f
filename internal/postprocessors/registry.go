package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from generic config.
// Config holds processor specific settings, usually decoded from TOML.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage names a processor and the config it is built with.
type Stage struct {
	Name   string
	Config map[string]any
}

// Registry maps processor names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder. The name should match the processor's Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a processor by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
	return builder(cfg)
}

// BuildPipeline builds every stage in order and chains them.
func (r *Registry) BuildPipeline(stages ...Stage) (*Pipeline, error) {
	pipeline := NewPipeline()
	for _, stage := range stages {
		processor, err := r.Build(stage.Name, stage.Config)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", stage.Name, err)
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

// Has reports whether a processor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
