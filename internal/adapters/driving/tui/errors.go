package tui

import "errors"

// ErrMissingRecommender is returned when the recommendation service is not provided.
var ErrMissingRecommender = errors.New("tui: recommendation service is required")
