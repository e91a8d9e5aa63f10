package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/core/ports/driving"
	"github.com/custodia-labs/animerec/internal/logger"
	"github.com/custodia-labs/animerec/internal/metrics"
)

// Ensure Pipeline implements the interface.
var _ driving.RecommendationService = (*Pipeline)(nil)

// State is the pipeline lifecycle state.
type State string

// Pipeline states.
const (
	StateUninitialized State = "UNINITIALIZED"
	StateReady         State = "READY"
)

// Dependencies are the driven ports a Pipeline is assembled from.
// PromptStore is optional.
type Dependencies struct {
	Loader      driven.CatalogLoader
	Chunker     driven.Chunker
	Embedder    driven.EmbeddingService
	Store       driven.VectorIndexStore
	LLM         driven.LLMService
	PromptStore driven.PromptStore
}

func (d Dependencies) validate() error {
	var missing []string
	if d.Loader == nil {
		missing = append(missing, "catalog loader")
	}
	if d.Chunker == nil {
		missing = append(missing, "chunker")
	}
	if d.Embedder == nil {
		missing = append(missing, "embedder")
	}
	if d.Store == nil {
		missing = append(missing, "index store")
	}
	if d.LLM == nil {
		missing = append(missing, "llm")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Pipeline owns the loaded index and the Recommender built on it.
// A Pipeline returned by NewPipeline is READY; there is no partial state.
type Pipeline struct {
	mu          sync.RWMutex
	state       State
	index       driven.VectorIndex
	recommender *Recommender
	topK        int
	minQueryLen int
	llm         driven.LLMService
	embedder    driven.EmbeddingService
}

// NewPipeline verifies the catalog, builds the index at settings.Index.Dir
// when it does not exist yet, loads it and binds a Recommender to it.
// Every failure is wrapped in domain.ErrPipelineInit.
func NewPipeline(ctx context.Context, settings domain.Settings, deps Dependencies) (*Pipeline, error) {
	const op = "pipeline.init"
	logger.Section("Pipeline Init")

	if err := deps.validate(); err != nil {
		return nil, domain.Wrap(domain.ErrPipelineInit, op, domain.Wrap(domain.ErrConfig, op, err))
	}
	if err := checkCatalog(settings.Catalog.Path); err != nil {
		return nil, domain.Wrap(domain.ErrPipelineInit, op, err)
	}

	dir := settings.Index.Dir
	exists, err := deps.Store.Exists(dir)
	if err != nil {
		return nil, domain.Wrap(domain.ErrPipelineInit, op, domain.Wrap(domain.ErrIndexLoad, op, err))
	}
	if !exists {
		if _, err := BuildIndex(ctx, settings, deps); err != nil {
			return nil, domain.Wrap(domain.ErrPipelineInit, op, err)
		}
	} else {
		logger.Debug("Using existing index at %s", dir)
	}

	index, err := deps.Store.Load(ctx, dir, deps.Embedder)
	if err != nil {
		return nil, domain.Wrap(domain.ErrPipelineInit, op, err)
	}
	info := index.Info()
	metrics.SetIndexEntries(info.Entries)
	logger.Info("Index ready: %d entries, model %s", info.Entries, info.Model)

	rec := NewRecommender(index, deps.LLM,
		WithTopK(settings.Retrieval.TopK),
		WithNoMatchPolicy(settings.Retrieval.NoMatchPolicy),
		WithMinScore(settings.Retrieval.MinScore),
		WithPromptStore(deps.PromptStore),
		WithGeneration(settings.LLM.MaxTokens, settings.LLM.Temperature),
	)

	minLen := settings.Retrieval.MinQueryLength
	if minLen <= 0 {
		minLen = domain.DefaultMinQueryLength
	}

	return &Pipeline{
		state:       StateReady,
		index:       index,
		recommender: rec,
		topK:        rec.topK,
		minQueryLen: minLen,
		llm:         deps.LLM,
		embedder:    deps.Embedder,
	}, nil
}

// BuildIndex loads the catalog, chunks it and builds the index at
// settings.Index.Dir. When the directory was missing or empty beforehand, a
// failed build leaves it missing or empty again.
func BuildIndex(ctx context.Context, settings domain.Settings, deps Dependencies) (domain.IndexInfo, error) {
	const op = "pipeline.build"
	logger.Section("Index Build")

	if err := checkCatalog(settings.Catalog.Path); err != nil {
		return domain.IndexInfo{}, err
	}

	if err := checkEmbedder(ctx, deps.Embedder); err != nil {
		return domain.IndexInfo{}, err
	}

	dir := settings.Index.Dir
	existed, empty := indexDirState(dir)

	start := time.Now()
	records, err := deps.Loader.Load(ctx, settings.Catalog.Path)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	chunks := deps.Chunker.Split(records)
	logger.Info("Indexing %d records as %d chunks into %s", len(records), len(chunks), dir)

	info, err := deps.Store.Build(ctx, dir, chunks, deps.Embedder)
	if err != nil {
		if empty {
			discardPartialIndex(dir, existed)
		}
		return domain.IndexInfo{}, err
	}

	elapsed := time.Since(start)
	metrics.RecordIndexBuild(elapsed, info.Entries)
	logger.Info("Built index with %d entries in %s", info.Entries, elapsed.Round(time.Millisecond))
	return info, nil
}

// checkEmbedder pings embedder so an unreachable model server fails before
// any index files are touched.
func checkEmbedder(ctx context.Context, embedder driven.EmbeddingService) error {
	if err := embedder.Ping(ctx); err != nil {
		return domain.Wrap(domain.ErrEmbedding, "pipeline.embedder",
			fmt.Errorf("embedding model %s unreachable: %w", embedder.ModelName(), err))
	}
	return nil
}

// indexDirState reports whether dir exists and whether it holds nothing.
// A missing directory counts as empty. Unreadable directories are neither.
func indexDirState(dir string) (existed, empty bool) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, true
	}
	if err != nil {
		return true, false
	}
	return true, len(entries) == 0
}

// discardPartialIndex undoes a failed build. A directory that existed before
// the build, such as a mount point, is kept and only emptied.
func discardPartialIndex(dir string, existed bool) {
	if !existed {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("remove partial index %s: %v", dir, err)
		}
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("read partial index %s: %v", dir, err)
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("remove partial index file %s: %v", e.Name(), err)
		}
	}
}

// checkCatalog reports ErrConfig when path is unset or absent.
func checkCatalog(path string) error {
	const op = "pipeline.catalog"
	if strings.TrimSpace(path) == "" {
		return domain.Errorf(domain.ErrConfig, op, "catalog path is not set (set %s or catalog.path)", "PROCESSED_CSV_PATH")
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.Wrap(domain.ErrConfig, op, err)
	}
	if info.IsDir() {
		return domain.Errorf(domain.ErrConfig, op, "catalog path %s is a directory", path)
	}
	return nil
}

// Recommend validates query and delegates to the Recommender. Failures are
// wrapped in domain.ErrPipelineRuntime with the cause kept.
func (p *Pipeline) Recommend(ctx context.Context, query string) (domain.Recommendation, error) {
	const op = "pipeline.recommend"

	p.mu.RLock()
	defer p.mu.RUnlock()

	query, err := p.checkQuery(query)
	if err != nil {
		metrics.RecordRequest("recommend", metrics.OutcomeValidation)
		return domain.Recommendation{}, domain.Wrap(domain.ErrPipelineRuntime, op, err)
	}

	rec, err := p.recommender.Recommend(ctx, query)
	if err != nil {
		logger.Error(err, "recommend %q", query)
		metrics.RecordRequest("recommend", metrics.OutcomeError)
		return domain.Recommendation{}, domain.Wrap(domain.ErrPipelineRuntime, op, err)
	}

	if rec.Degraded {
		metrics.RecordRequest("recommend", metrics.OutcomeDegraded)
	} else {
		metrics.RecordRequest("recommend", metrics.OutcomeOK)
	}
	return rec, nil
}

// Search returns raw retrieval hits. k of zero selects the configured top-k.
func (p *Pipeline) Search(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	const op = "pipeline.search"

	p.mu.RLock()
	defer p.mu.RUnlock()

	query, err := p.checkQuery(query)
	if err != nil {
		metrics.RecordRequest("search", metrics.OutcomeValidation)
		return nil, domain.Wrap(domain.ErrPipelineRuntime, op, err)
	}
	if k == 0 {
		k = p.topK
	}

	hits, err := p.recommender.retrieve(ctx, query, k)
	if err != nil {
		metrics.RecordRequest("search", metrics.OutcomeError)
		return nil, domain.Wrap(domain.ErrPipelineRuntime, op, err)
	}
	metrics.RecordRequest("search", metrics.OutcomeOK)
	return hits, nil
}

// checkQuery trims query and enforces the minimum length. It must be
// called with p.mu held.
func (p *Pipeline) checkQuery(query string) (string, error) {
	const op = "pipeline.validate"
	if p.state != StateReady {
		return "", domain.Errorf(domain.ErrValidation, op, "pipeline is %s", p.state)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.Errorf(domain.ErrValidation, op, "query is empty")
	}
	if n := utf8.RuneCountInString(query); n < p.minQueryLen {
		return "", domain.Errorf(domain.ErrValidation, op,
			"query must be at least %d characters, got %d", p.minQueryLen, n)
	}
	return query, nil
}

// Info describes the loaded index.
func (p *Pipeline) Info() domain.IndexInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.index == nil {
		return domain.IndexInfo{}
	}
	return p.index.Info()
}

// MinQueryLength is the shortest accepted query in runes.
func (p *Pipeline) MinQueryLength() int {
	return p.minQueryLen
}

// ModelName is the generation model answering recommendations.
func (p *Pipeline) ModelName() string {
	return p.llm.ModelName()
}

// State reports the lifecycle state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Close releases the index, the LLM client and the embedder. Later calls fail validation.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady {
		return nil
	}
	p.state = StateUninitialized
	return errors.Join(p.index.Close(), p.llm.Close(), p.embedder.Close())
}
