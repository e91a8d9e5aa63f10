package driven

import "github.com/custodia-labs/animerec/internal/core/domain"

// Chunker splits catalog records into bounded chunks for embedding.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Split returns the chunks for all records, record order preserved.
	// Records with blank text produce no chunks.
	Split(records []domain.CatalogRecord) []domain.Chunk
}
