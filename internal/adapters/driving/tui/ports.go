// Package tui provides an interactive terminal user interface for animerec.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/animerec/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Recommender answers queries and exposes raw retrieval.
	Recommender driving.RecommendationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Recommender == nil {
		return ErrMissingRecommender
	}
	return nil
}
