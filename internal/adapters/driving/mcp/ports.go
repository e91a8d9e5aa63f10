package mcp

import (
	"github.com/custodia-labs/animerec/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Recommender answers preference queries and exposes raw retrieval.
	Recommender driving.RecommendationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Recommender == nil {
		return ErrMissingRecommender
	}
	return nil
}
