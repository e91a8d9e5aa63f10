package domain

import (
	"strings"
	"time"
)

// SearchHit is a single similarity search result.
type SearchHit struct {
	// Chunk is the matched chunk with its source metadata.
	Chunk Chunk

	// Score is the cosine similarity between query and chunk, in [-1, 1].
	Score float64
}

// QueryResult is an ordered sequence of hits, best first.
type QueryResult []SearchHit

// Source identifies a catalog title that contributed to an answer.
type Source struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres,omitempty"`
	Score  float64  `json:"score"`
}

// Recommendation is the result of a preference query.
type Recommendation struct {
	// Query is the trimmed query that was answered.
	Query string `json:"query"`

	// Answer is the generated recommendation text. Always set.
	Answer string `json:"answer"`

	// Sources lists one entry per distinct retrieved title, best score first.
	Sources []Source `json:"sources,omitempty"`

	// Retrieved is the number of chunks fed to the generation model.
	Retrieved int `json:"retrieved"`

	// Degraded is true when no chunks matched and a canned answer was used.
	Degraded bool `json:"degraded,omitempty"`
}

// SourcesFromHits collapses hits into one Source per title, keeping the
// first (highest scoring) occurrence of each.
func SourcesFromHits(hits QueryResult) []Source {
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(hits))
	sources := make([]Source, 0, len(hits))
	for _, h := range hits {
		key := strings.ToLower(h.Chunk.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, Source{
			Title:  h.Chunk.Title,
			Genres: h.Chunk.Genres,
			Score:  h.Score,
		})
	}
	return sources
}

// IndexInfo describes a persisted vector index.
type IndexInfo struct {
	// Location is the index directory.
	Location string `json:"location"`

	// Model is the identifier of the embedding model used at build time.
	Model string `json:"model"`

	// Dimensions is the embedding vector length.
	Dimensions int `json:"dimensions"`

	// Entries is the number of stored chunks.
	Entries int `json:"entries"`

	// CreatedAt is when the index was first built.
	CreatedAt time.Time `json:"created_at"`
}
