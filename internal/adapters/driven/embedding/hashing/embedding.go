// Package hashing provides a local, deterministic embedding service based on
// feature hashing. It needs no model files and no network.
package hashing

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 384

	// Version is bumped whenever tokenisation or weighting changes, which
	// invalidates previously built indexes.
	Version = "v1"

	bigramWeight = 0.5
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// EmbeddingService maps text to a signed, L2-normalised bag of hashed
// unigrams and bigrams.
type EmbeddingService struct {
	dimensions int
	stopwords  map[string]struct{}
}

// New creates a hashing embedder. Non-positive dimensions use the default.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dimensions: dimensions,
		stopwords:  defaultStopwords(),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "embed", err)
	}
	vec, err := s.vector(text)
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "embed", err)
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model identifier, including version and dimension.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hashing-%s-%d", Version, s.dimensions)
}

// Ping always succeeds; there is nothing remote to reach.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	tokens := s.tokens(text, true)
	if len(tokens) == 0 {
		// Stopword-only input still carries some signal.
		tokens = s.tokens(text, false)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens in %q", truncate(text, 40))
	}

	counts := make(map[string]int, len(tokens)*2)
	for i, t := range tokens {
		counts[t]++
		if i > 0 {
			counts[tokens[i-1]+" "+t]++
		}
	}

	// Sorted so that float summation order, and so the vector bits, never vary.
	features := make([]string, 0, len(counts))
	for f := range counts {
		features = append(features, f)
	}
	sort.Strings(features)

	acc := make([]float64, s.dimensions)
	for _, f := range features {
		h := xxhash.Sum64String(f)
		w := 1 + math.Log(float64(counts[f]))
		if strings.Contains(f, " ") {
			w *= bigramWeight
		}
		if h>>63 == 1 {
			w = -w
		}
		acc[h%uint64(s.dimensions)] += w
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	if norm == 0 {
		return nil, fmt.Errorf("degenerate vector for %q", truncate(text, 40))
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

func (s *EmbeddingService) tokens(text string, dropStopwords bool) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		t = strings.ReplaceAll(t, "’", "'")
		if dropStopwords {
			if _, stop := s.stopwords[t]; stop {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into",
		"about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "don", "should", "now", "i", "me", "my", "we", "our",
		"you", "your", "he", "she", "his", "her", "they", "them", "their", "some", "any", "want", "like",
		"something", "anime", "show", "shows",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
