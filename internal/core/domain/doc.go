// Package domain defines the core business entities for animerec.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CatalogRecord: One row of the anime catalog
//   - Chunk: A bounded segment of a record, the unit of retrieval
//   - SearchHit: A chunk paired with its similarity score
//   - Recommendation: The answer produced for a preference query
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
