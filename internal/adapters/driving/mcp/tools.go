package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/logger"
)

// maxSearchLimit caps search_catalog results.
const maxSearchLimit = 50

// RecommendInput is the input schema for the recommend_anime tool.
type RecommendInput struct {
	Query string `json:"query" jsonschema:"what the user would like to watch, e.g. mecha action series"`
}

// RecommendOutput is the output schema for the recommend_anime tool.
type RecommendOutput struct {
	Answer    string          `json:"answer"`
	Sources   []domain.Source `json:"sources"`
	Retrieved int             `json:"retrieved"`
	Degraded  bool            `json:"degraded"`
}

// SearchInput is the input schema for the search_catalog tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free text describing genres, mood or setting"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default is the configured top-k)"`
}

// SearchOutput is the output schema for the search_catalog tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single catalog hit.
type SearchResultOutput struct {
	Title   string   `json:"title"`
	Genres  []string `json:"genres,omitempty"`
	Score   float64  `json:"score"`
	Content string   `json:"content"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recommend_anime",
		Description: "Recommend anime from the local catalog that match the user's preferences",
	}, s.handleRecommend)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_catalog",
		Description: "Return the catalog entries most similar to a description, without generating an answer",
	}, s.handleSearch)
}

func (s *Server) handleRecommend(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecommendInput,
) (*mcp.CallToolResult, RecommendOutput, error) {
	rec, err := s.ports.Recommender.Recommend(ctx, input.Query)
	if err != nil {
		return nil, RecommendOutput{}, toolError("recommend_anime", err)
	}

	sources := rec.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return nil, RecommendOutput{
		Answer:    rec.Answer,
		Sources:   sources,
		Retrieved: rec.Retrieved,
		Degraded:  rec.Degraded,
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit < 0 {
		limit = 0
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := s.ports.Recommender.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, toolError("search_catalog", err)
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			Title:   h.Chunk.Title,
			Genres:  h.Chunk.Genres,
			Score:   h.Score,
			Content: h.Chunk.Content,
		}
	}
	return nil, output, nil
}

// toolError logs the cause and returns a message suitable for the client.
func toolError(tool string, err error) error {
	logger.Error(err, "mcp tool %s failed", tool)
	msg, hint := domain.Explain(err)
	return errors.New(msg + " " + hint)
}
