// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CorpusStore: Document and chunk persistence (memory or SQLite)
//   - Normaliser: Turns raw file bytes into a Document
//   - PostProcessor / PostProcessorPipeline: Split documents into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it the engine is lexical only.
//   - LLMService: Text generation. Without it answers are extractive.
//
// # Capabilities
//
//   - Retriever: A searchable index (lexical or vector) the hybrid ranker composes over.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
