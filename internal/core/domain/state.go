package domain

import "time"

// IndexState is the lifecycle state of a retrieval engine.
type IndexState string

// Engine states.
const (
	// IndexStateEmpty means no chunks are indexed.
	IndexStateEmpty IndexState = "empty"

	// IndexStateIndexed means the live snapshot reflects the corpus.
	IndexStateIndexed IndexState = "indexed"

	// IndexStateStale means the corpus changed since the live snapshot was built.
	IndexStateStale IndexState = "stale"
)

// String returns the string representation.
func (s IndexState) String() string {
	return string(s)
}

// IndexHandle describes an index snapshot.
type IndexHandle struct {
	// ID uniquely identifies the snapshot.
	ID string `json:"id"`

	// Generation increases by one with each published snapshot.
	Generation uint64 `json:"generation"`

	State          IndexState `json:"state"`
	ChunkCount     int        `json:"chunk_count"`
	DocumentCount  int        `json:"document_count"`
	SourceCount    int        `json:"source_count"`
	VectorCount    int        `json:"vector_count"`
	Dimension      int        `json:"dimension"`
	VocabularySize int        `json:"vocabulary_size"`

	// VectorsAvailable is false when the snapshot is lexical only.
	VectorsAvailable bool `json:"vectors_available"`

	BuiltAt time.Time `json:"built_at"`
}

// IndexStats summarises the live snapshot.
type IndexStats struct {
	State            IndexState `json:"state"`
	ChunkCount       int        `json:"chunk_count"`
	DocumentCount    int        `json:"document_count"`
	SourceCount      int        `json:"source_count"`
	VectorCount      int        `json:"vector_count"`
	VocabularySize   int        `json:"vocabulary_size"`
	TotalTokens      int        `json:"total_tokens"`
	AverageChunkLen  float64    `json:"average_chunk_tokens"`
	MinSimilarity    float64    `json:"min_similarity_threshold"`
	TopK             int        `json:"max_results_limit"`
	Generation       uint64     `json:"generation"`
	VectorsAvailable bool       `json:"vectors_available"`
}
