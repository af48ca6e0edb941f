package domain

import (
	"errors"
	"fmt"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers. Both speak the OpenAI wire format.
const (
	// AIProviderNone disables the capability.
	AIProviderNone AIProvider = ""

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "Disabled"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// DefaultBaseURL returns the API endpoint used when none is configured.
func (p AIProvider) DefaultBaseURL() string {
	switch p {
	case AIProviderOllama:
		return "http://localhost:11434/v1"
	case AIProviderOpenAI:
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

// ChunkingSettings controls how document text is split.
type ChunkingSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `toml:"chunk_size"`

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int `toml:"overlap"`

	// MinChunkSize is the shortest chunk kept, except for the final chunk.
	MinChunkSize int `toml:"min_chunk_size"`
}

// Validate checks the chunking parameters.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidInput, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk_size), got %d", ErrInvalidInput, c.Overlap)
	}
	// A boundary cut always lands past chunk_size/2, so no slice before the
	// last one can come out shorter than the minimum.
	if c.MinChunkSize <= 0 || c.MinChunkSize > c.ChunkSize/2 {
		return fmt.Errorf("%w: min_chunk_size must be in (0, chunk_size/2], got %d", ErrInvalidInput, c.MinChunkSize)
	}
	return nil
}

// SearchSettings holds query-time defaults.
type SearchSettings struct {
	// TopK is the default number of results.
	TopK int `toml:"top_k"`

	// MinSimilarity is the base score a candidate must exceed.
	MinSimilarity float64 `toml:"min_similarity"`

	// CandidateMultiplier scales TopK when asking the vector index for candidates.
	CandidateMultiplier int `toml:"candidate_multiplier"`
}

// Validate checks the search parameters.
func (s SearchSettings) Validate() error {
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, s.TopK)
	}
	if s.MinSimilarity < 0 || s.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [0, 1], got %g", ErrInvalidInput, s.MinSimilarity)
	}
	if s.CandidateMultiplier < 1 {
		return fmt.Errorf("%w: candidate_multiplier must be at least 1", ErrInvalidInput)
	}
	return nil
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Partitions is the number of quantizer partitions. Zero keeps a flat index.
	Partitions int `toml:"partitions"`

	// Probes is the number of partitions searched per query.
	Probes int `toml:"probes"`

	// PartitionThreshold is the corpus size from which partitions are used.
	PartitionThreshold int `toml:"partition_threshold"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider. Empty disables vectors.
	Provider AIProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for OpenAI).
	APIKey string `toml:"api_key"`

	// Dimensions overrides the model's default dimension.
	Dimensions int `toml:"dimensions"`

	// BatchSize is the number of texts per embedding request.
	BatchSize int `toml:"batch_size"`

	// Workers bounds concurrent embedding requests.
	Workers int `toml:"workers"`

	// RequestsPerSecond limits the request rate. Zero means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// CacheSize is the number of cached embeddings. Zero disables the cache.
	CacheSize int `toml:"cache_size"`

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `toml:"max_retries"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables generation.
	Provider AIProvider `toml:"provider"`

	// Model is the LLM model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for OpenAI).
	APIKey string `toml:"api_key"`

	// MaxTokens caps the generated answer length.
	MaxTokens int `toml:"max_tokens"`

	// Temperature controls randomness.
	Temperature float64 `toml:"temperature"`

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `toml:"max_retries"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AnswerSettings bounds the context handed to answer synthesis.
type AnswerSettings struct {
	// MaxContextResults is the number of results included in the context.
	MaxContextResults int `toml:"max_context_results"`

	// MaxContextChars caps the assembled context length.
	MaxContextChars int `toml:"max_context_chars"`
}

// StorageSettings locates on-disk state.
type StorageSettings struct {
	// DataDir holds the corpus database and index snapshot.
	DataDir string `toml:"data_dir"`

	// IndexPath is the base path of the saved index, without extension.
	IndexPath string `toml:"index_path"`
}

// RetrievalSettings holds all engine settings.
type RetrievalSettings struct {
	Chunking  ChunkingSettings    `toml:"chunking"`
	Search    SearchSettings      `toml:"search"`
	Vector    VectorIndexSettings `toml:"vector"`
	Embedding EmbeddingSettings   `toml:"embedding"`
	LLM       LLMSettings         `toml:"llm"`
	Answer    AnswerSettings      `toml:"answer"`
	Storage   StorageSettings     `toml:"storage"`
}

// DefaultRetrievalSettings returns settings with sensible defaults.
// AI providers are left unconfigured; the engine then runs lexical only.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		Chunking: ChunkingSettings{
			ChunkSize:    1000,
			Overlap:      200,
			MinChunkSize: 100,
		},
		Search: SearchSettings{
			TopK:                10,
			MinSimilarity:       0.1,
			CandidateMultiplier: 4,
		},
		Vector: VectorIndexSettings{
			Partitions:         0,
			Probes:             10,
			PartitionThreshold: 1000,
		},
		Embedding: EmbeddingSettings{
			BatchSize:         32,
			Workers:           4,
			RequestsPerSecond: 5,
			CacheSize:         1024,
			MaxRetries:        3,
		},
		LLM: LLMSettings{
			MaxTokens:   512,
			Temperature: 0.2,
			MaxRetries:  3,
		},
		Answer: AnswerSettings{
			MaxContextResults: 5,
			MaxContextChars:   6000,
		},
	}
}

// Validate checks every section and joins the failures.
func (s RetrievalSettings) Validate() error {
	var errs []error
	if err := s.Chunking.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("chunking: %w", err))
	}
	if err := s.Search.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if s.Vector.Partitions < 0 || s.Vector.Probes < 0 {
		errs = append(errs, fmt.Errorf("vector: %w: partitions and probes must not be negative", ErrInvalidInput))
	}
	if s.Embedding.Provider != AIProviderNone && !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("embedding: %w: unknown provider %q", ErrInvalidInput, s.Embedding.Provider))
	}
	if s.Embedding.BatchSize <= 0 || s.Embedding.Workers <= 0 {
		errs = append(errs, fmt.Errorf("embedding: %w: batch_size and workers must be positive", ErrInvalidInput))
	}
	if s.LLM.Provider != AIProviderNone && !s.LLM.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("llm: %w: unknown provider %q", ErrInvalidInput, s.LLM.Provider))
	}
	if s.Answer.MaxContextResults <= 0 || s.Answer.MaxContextChars <= 0 {
		errs = append(errs, fmt.Errorf("answer: %w: context bounds must be positive", ErrInvalidInput))
	}
	return errors.Join(errs...)
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector size of known embedding models.
// Models not listed report their dimension with the first response.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
