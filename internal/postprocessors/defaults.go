// Package postprocessors builds the record processors used during indexing.
package postprocessors

import (
	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/postprocessors/chunker"
)

// NewChunker creates the chunker described by settings.
// Zero values fall back to the chunker defaults.
func NewChunker(s domain.ChunkerSettings) driven.Chunker {
	opts := []chunker.Option{
		chunker.WithChunkSize(s.Size),
		chunker.WithOverlap(s.Overlap),
	}
	if s.Separator != "" {
		opts = append(opts, chunker.WithSeparator(s.Separator))
	}
	return chunker.New(opts...)
}
