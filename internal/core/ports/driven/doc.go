// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CatalogLoader: Reads catalog records from a tabular file
//   - Chunker: Splits records into retrieval units
//   - EmbeddingService: Maps text to vectors on local compute
//   - VectorIndexStore: Builds and opens persisted vector indexes
//   - LLMService: Generates the recommendation text
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
