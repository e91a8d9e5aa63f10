package driven

import (
	"context"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// VectorIndexStore builds and opens persisted vector indexes.
// A location is a directory owned entirely by the store.
type VectorIndexStore interface {
	// Exists reports whether location holds a built index (non-empty directory).
	Exists(location string) (bool, error)

	// Build embeds every chunk and persists it at location.
	// Fails with domain.ErrIndexBuild on an empty chunk slice. Building into
	// an existing index appends entries; callers check Exists first.
	Build(ctx context.Context, location string, chunks []domain.Chunk, embedder EmbeddingService) (domain.IndexInfo, error)

	// Load opens a persisted index for querying without re-embedding.
	// Fails with domain.ErrIndexLoad when location is missing or corrupt, or
	// when the index was built with a different embedding model.
	Load(ctx context.Context, location string, embedder EmbeddingService) (VectorIndex, error)
}

// VectorIndex provides semantic similarity search over a loaded index.
// Implementations must be safe for concurrent Search calls.
type VectorIndex interface {
	// Search embeds query and returns the k most similar entries in
	// non-increasing score order, ties in insertion order.
	// k must be positive; k above the entry count returns every entry.
	Search(ctx context.Context, query string, k int) (domain.QueryResult, error)

	// Info describes the loaded index.
	Info() domain.IndexInfo

	// Close releases resources.
	Close() error
}
