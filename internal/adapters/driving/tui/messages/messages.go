// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/animerec/internal/core/domain"
)

// Mode selects what a submitted query does.
type Mode int

const (
	// ModeRecommend retrieves and generates an answer.
	ModeRecommend Mode = iota
	// ModeSearch only retrieves, showing the raw hits.
	ModeSearch
)

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRecommend:
		return "recommend"
	case ModeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Next returns the other mode.
func (m Mode) Next() Mode {
	if m == ModeRecommend {
		return ModeSearch
	}
	return ModeRecommend
}

// RecommendationCompleted carries a generated answer back to the model.
type RecommendationCompleted struct {
	Query          string
	Recommendation domain.Recommendation
	Err            error
}

// SearchCompleted carries raw retrieval hits back to the model.
type SearchCompleted struct {
	Query string
	Hits  domain.QueryResult
	Err   error
}
