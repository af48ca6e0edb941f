// Package domain defines the core business entities for StudyMate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of one ingested file
//   - Chunk: The unit indexed by the lexical and vector indexes
//   - SearchResult / RetrievalOutcome: Transient query results
//   - IndexHandle: Description of the live index snapshot
//   - RetrievalSettings: Typed engine configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
