package driving

import (
	"context"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// RecommendationService answers anime preference queries.
type RecommendationService interface {
	// Recommend retrieves matching catalog entries and generates an answer.
	// Queries shorter than the configured minimum fail with domain.ErrValidation
	// before any retrieval happens.
	Recommend(ctx context.Context, query string) (domain.Recommendation, error)

	// Search returns the raw retrieval hits for query without generation.
	Search(ctx context.Context, query string, k int) (domain.QueryResult, error)

	// Info describes the loaded index.
	Info() domain.IndexInfo

	// MinQueryLength is the shortest query, in runes, that is accepted.
	MinQueryLength() int
}
