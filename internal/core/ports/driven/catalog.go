package driven

import (
	"context"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// CatalogLoader reads a catalog file into records.
// Implementations must not modify the file.
type CatalogLoader interface {
	// Load returns one record per data row in file order.
	// Fails with domain.ErrDataLoad when the file is missing,
	// unparseable, or holds no records.
	Load(ctx context.Context, path string) ([]domain.CatalogRecord, error)
}
