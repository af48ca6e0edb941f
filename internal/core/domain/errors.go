package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, such as empty text
	// or inconsistent chunking parameters. It is returned at call time.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable indicates no index snapshot has been built.
	// Search turns it into an empty outcome rather than returning it.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrPersistence indicates index files are missing or corrupt.
	ErrPersistence = errors.New("index persistence failed")

	// ErrEmbeddingFailure indicates the external embedding call failed.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrGenerationFailure indicates the language model failed or returned no answer.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrRebuildInProgress indicates another writer holds the index.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answers fall back to extractive synthesis.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// PersistenceError reports a failure reading or writing an index file.
type PersistenceError struct {
	// Path is the file involved.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError wraps err for path.
func NewPersistenceError(path string, err error) error {
	return &PersistenceError{Path: path, Err: err}
}
