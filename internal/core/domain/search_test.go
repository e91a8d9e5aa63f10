package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hit(title string, score float64) SearchHit {
	return SearchHit{Chunk: Chunk{Title: title, Genres: []string{"Action"}}, Score: score}
}

func TestSourcesFromHits_DeduplicatesByTitle(t *testing.T) {
	hits := QueryResult{
		hit("Steel Guardians", 0.9),
		hit("Sakura Days", 0.5),
		hit("steel guardians", 0.4),
		hit("Shadow Pact", 0.2),
	}

	sources := SourcesFromHits(hits)

	assert.Len(t, sources, 3)
	assert.Equal(t, "Steel Guardians", sources[0].Title)
	assert.InDelta(t, 0.9, sources[0].Score, 1e-9)
	assert.Equal(t, "Sakura Days", sources[1].Title)
	assert.Equal(t, "Shadow Pact", sources[2].Title)
}

func TestSourcesFromHits_Empty(t *testing.T) {
	assert.Nil(t, SourcesFromHits(nil))
	assert.Nil(t, SourcesFromHits(QueryResult{}))
}

// TestRecommendation_DefaultValues tests Recommendation with zero values
func TestRecommendation_DefaultValues(t *testing.T) {
	rec := Recommendation{}

	assert.Empty(t, rec.Answer)
	assert.Nil(t, rec.Sources)
	assert.False(t, rec.Degraded)
}
