package mcp

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "animerec://"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Location, embedding model and size of the catalog index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := s.ports.Recommender.Info()
	data, err := json.MarshalIndent(struct {
		Location       string `json:"location"`
		Model          string `json:"model"`
		Dimensions     int    `json:"dimensions"`
		Entries        int    `json:"entries"`
		MinQueryLength int    `json:"min_query_length"`
	}{
		Location:       info.Location,
		Model:          info.Model,
		Dimensions:     info.Dimensions,
		Entries:        info.Entries,
		MinQueryLength: s.ports.Recommender.MinQueryLength(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding index info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
