// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations must run locally and be deterministic: the same text and
// ModelName always give the same vector. Implementations include:
//   - hashing (built-in feature hashing, no model files)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Text without content fails with domain.ErrEmbedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	Dimensions() int

	// ModelName identifies the model and version. It is stored with a
	// persisted index and compared when the index is loaded.
	ModelName() string

	// Ping validates the service is usable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
