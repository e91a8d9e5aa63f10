// Package mcp provides an MCP (Model Context Protocol) server adapter for
// animerec. It lets AI assistants ask for anime recommendations and search
// the catalog index.
package mcp

import "errors"

// ErrMissingRecommender is returned when the recommendation service is not provided.
var ErrMissingRecommender = errors.New("mcp: recommendation service is required")
