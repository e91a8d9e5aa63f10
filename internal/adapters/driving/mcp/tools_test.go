package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func newTestServer(t *testing.T, m *mockRecommender) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Recommender: m})
	require.NoError(t, err)
	return server
}

func TestServer_handleRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		m := &mockRecommender{rec: domain.Recommendation{
			Answer:    "Watch Steel Guardians.",
			Sources:   []domain.Source{{Title: "Steel Guardians", Score: 0.7}},
			Retrieved: 2,
		}}
		server := newTestServer(t, m)

		_, out, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "mecha action series"})

		require.NoError(t, err)
		assert.Equal(t, "mecha action series", m.gotQuery)
		assert.Equal(t, "Watch Steel Guardians.", out.Answer)
		assert.Equal(t, 2, out.Retrieved)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "Steel Guardians", out.Sources[0].Title)
	})

	t.Run("degraded answer has empty sources", func(t *testing.T) {
		server := newTestServer(t, &mockRecommender{rec: domain.Recommendation{Answer: "none", Degraded: true}})

		_, out, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "zzzz"})

		require.NoError(t, err)
		assert.True(t, out.Degraded)
		assert.NotNil(t, out.Sources)
		assert.Empty(t, out.Sources)
	})

	t.Run("errors are explained without the cause", func(t *testing.T) {
		m := &mockRecommender{err: domain.Wrap(domain.ErrGeneration, "generate", assert.AnError)}
		server := newTestServer(t, m)

		_, _, err := server.handleRecommend(ctx, nil, RecommendInput{Query: "mecha action series"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not respond")
		assert.NotContains(t, err.Error(), assert.AnError.Error())
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits", func(t *testing.T) {
		m := &mockRecommender{hits: domain.QueryResult{
			{Chunk: domain.Chunk{Title: "Night Blade", Genres: []string{"Action"}, Content: "A swordsman."}, Score: 0.42},
		}}
		server := newTestServer(t, m)

		_, out, err := server.handleSearch(ctx, nil, SearchInput{Query: "sword fights", Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, m.gotK)
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, "Night Blade", out.Results[0].Title)
		assert.Equal(t, []string{"Action"}, out.Results[0].Genres)
		assert.InDelta(t, 0.42, out.Results[0].Score, 1e-9)
		assert.Equal(t, "A swordsman.", out.Results[0].Content)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		m := &mockRecommender{}
		server := newTestServer(t, m)

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "mecha", Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, maxSearchLimit, m.gotK)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "mecha", Limit: -4})
		require.NoError(t, err)
		assert.Equal(t, 0, m.gotK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server := newTestServer(t, &mockRecommender{err: domain.Wrap(domain.ErrValidation, "query", assert.AnError)})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't be used")
	})
}
