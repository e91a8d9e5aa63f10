package mcp

import (
	"context"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// mockRecommender is a mock implementation of driving.RecommendationService.
type mockRecommender struct {
	rec  domain.Recommendation
	hits domain.QueryResult
	err  error

	gotQuery string
	gotK     int
}

func (m *mockRecommender) Recommend(_ context.Context, query string) (domain.Recommendation, error) {
	m.gotQuery = query
	return m.rec, m.err
}

func (m *mockRecommender) Search(_ context.Context, query string, k int) (domain.QueryResult, error) {
	m.gotQuery = query
	m.gotK = k
	return m.hits, m.err
}

func (m *mockRecommender) Info() domain.IndexInfo {
	return domain.IndexInfo{Location: "/data/index", Model: "hashing-384", Dimensions: 384, Entries: 12}
}

func (m *mockRecommender) MinQueryLength() int { return 3 }
