package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/logger"
	"github.com/custodia-labs/animerec/internal/metrics"
)

// NoMatchAnswer is returned when retrieval finds nothing relevant and the
// degrade policy is active.
const NoMatchAnswer = "I couldn't find any strong matches for that in the catalog. " +
	"Try describing a genre, mood or setting, for example \"dark fantasy with strong female leads\"."

// Recommender turns a preference query into a grounded recommendation.
type Recommender struct {
	index       driven.VectorIndex
	llm         driven.LLMService
	prompts     driven.PromptStore
	topK        int
	minScore    float64
	policy      domain.NoMatchPolicy
	maxTokens   int
	temperature float64
}

// RecommenderOption configures a Recommender.
type RecommenderOption func(*Recommender)

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) RecommenderOption {
	return func(r *Recommender) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithNoMatchPolicy sets the behaviour for queries with no relevant hits.
func WithNoMatchPolicy(p domain.NoMatchPolicy) RecommenderOption {
	return func(r *Recommender) {
		if p.IsValid() {
			r.policy = p
		}
	}
}

// WithMinScore drops hits scoring at or below min. The default of 0 keeps
// only hits with some positive similarity.
func WithMinScore(minScore float64) RecommenderOption {
	return func(r *Recommender) {
		r.minScore = minScore
	}
}

// WithPromptStore loads templates from store instead of the built-in ones.
func WithPromptStore(store driven.PromptStore) RecommenderOption {
	return func(r *Recommender) {
		r.prompts = store
	}
}

// WithGeneration sets the token limit and sampling temperature.
func WithGeneration(maxTokens int, temperature float64) RecommenderOption {
	return func(r *Recommender) {
		r.maxTokens = maxTokens
		r.temperature = temperature
	}
}

// NewRecommender creates a Recommender bound to index and llm.
func NewRecommender(index driven.VectorIndex, llm driven.LLMService, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		index:  index,
		llm:    llm,
		topK:   domain.DefaultTopK,
		policy: domain.NoMatchDegrade,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend retrieves the top-k chunks for query and asks the LLM for an
// answer grounded in them. The query is expected to be validated already.
func (r *Recommender) Recommend(ctx context.Context, query string) (domain.Recommendation, error) {
	logger.Section("Recommend")
	logger.Debug("Query: %q, top_k: %d", query, r.topK)

	hits, err := r.retrieve(ctx, query, r.topK)
	if err != nil {
		return domain.Recommendation{}, err
	}
	hits = r.relevant(hits)
	logger.Debug("Documents retrieved: %d", len(hits))

	if len(hits) == 0 {
		if r.policy == domain.NoMatchFail {
			return domain.Recommendation{}, domain.Errorf(domain.ErrRetrieval, "recommender.retrieve",
				"no catalog entries match %q", query)
		}
		logger.Info("No relevant matches for %q, returning canned answer", query)
		return domain.Recommendation{Query: query, Answer: NoMatchAnswer, Degraded: true}, nil
	}

	system, prompt := r.buildPrompt(query, hits)

	start := time.Now()
	answer, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:      system,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	metrics.RecordGeneration(time.Since(start))
	if err != nil {
		return domain.Recommendation{}, domain.Wrap(domain.ErrGeneration, "recommender.generate", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.Recommendation{}, domain.Errorf(domain.ErrGeneration, "recommender.generate",
			"%s returned an empty answer", r.llm.ModelName())
	}
	logger.Debug("Generated %d characters in %s", len(answer), time.Since(start).Round(time.Millisecond))

	return domain.Recommendation{
		Query:     query,
		Answer:    answer,
		Sources:   domain.SourcesFromHits(hits),
		Retrieved: len(hits),
	}, nil
}

// retrieve runs the similarity search. Errors already carrying a kind, such
// as ErrEmbedding, keep it; anything else becomes ErrRetrieval.
func (r *Recommender) retrieve(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	start := time.Now()
	hits, err := r.index.Search(ctx, query, k)
	metrics.RecordRetrieval(time.Since(start), len(hits))
	if err != nil {
		if domain.KindOf(err) != nil {
			return nil, err
		}
		return nil, domain.Wrap(domain.ErrRetrieval, "recommender.retrieve", err)
	}
	return hits, nil
}

func (r *Recommender) relevant(hits domain.QueryResult) domain.QueryResult {
	out := hits[:0:0]
	for _, h := range hits {
		if h.Score > r.minScore {
			out = append(out, h)
		}
	}
	return out
}

// buildPrompt returns the system instruction and the rendered request.
func (r *Recommender) buildPrompt(query string, hits domain.QueryResult) (system, prompt string) {
	system = driven.DefaultRecommendSystemPrompt
	tmpl := driven.DefaultRecommendPrompt
	if r.prompts != nil {
		if s, err := r.prompts.Load(driven.PromptRecommendSystem); err == nil {
			system = s
		}
		if t, err := r.prompts.Load(driven.PromptRecommend); err == nil {
			tmpl = t
		}
	}

	// Single pass, so a query containing a placeholder is not expanded.
	prompt = strings.NewReplacer(
		"{{context}}", BuildContext(hits),
		"{{question}}", query,
	).Replace(tmpl)
	return system, prompt
}

// BuildContext renders hits as a numbered context block:
//
//	[1] Steel Guardians (Action, Mecha)
//	Title: Steel Guardians ...
func BuildContext(hits domain.QueryResult) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, h.Chunk.Title)
		if len(h.Chunk.Genres) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(h.Chunk.Genres, ", "))
		}
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(h.Chunk.Content))
	}
	return b.String()
}
