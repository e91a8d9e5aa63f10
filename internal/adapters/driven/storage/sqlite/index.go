package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
	"github.com/custodia-labs/animerec/internal/logger"
)

// Ensure types implement the interfaces.
var (
	_ driven.VectorIndexStore = (*IndexStore)(nil)
	_ driven.VectorIndex      = (*Index)(nil)
)

// IndexStore builds and opens index directories.
type IndexStore struct {
	workers   int
	batchSize int
	now       func() time.Time
}

// IndexStoreOption configures an IndexStore.
type IndexStoreOption func(*IndexStore)

// WithWorkers sets the embedding worker pool size used by Build.
func WithWorkers(n int) IndexStoreOption {
	return func(s *IndexStore) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many chunks a worker sends per EmbedBatch call.
func WithBatchSize(n int) IndexStoreOption {
	return func(s *IndexStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewIndexStore creates an IndexStore.
func NewIndexStore(opts ...IndexStoreOption) *IndexStore {
	s := &IndexStore{
		workers:   runtime.NumCPU(),
		batchSize: domain.DefaultEmbedBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether location is a non-empty directory.
func (s *IndexStore) Exists(location string) (bool, error) {
	entries, err := os.ReadDir(location)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading index directory: %w", err)
	}
	return len(entries) > 0, nil
}

// Build embeds chunks and appends them to the index at location.
func (s *IndexStore) Build(
	ctx context.Context,
	location string,
	chunks []domain.Chunk,
	embedder driven.EmbeddingService,
) (domain.IndexInfo, error) {
	const op = "index.build"

	if len(chunks) == 0 {
		return domain.IndexInfo{}, domain.Errorf(domain.ErrIndexBuild, op, "no chunks to index")
	}

	st, err := openStore(location, true)
	if err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, err)
	}
	defer st.Close()

	existing, err := st.meta(ctx)
	if err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, err)
	}
	if existing.Model != "" && !sameModel(existing, embedder) {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, mismatch(existing, embedder))
	}

	logger.Debug("Embedding %d chunks with %s on %d workers, %d per batch",
		len(chunks), embedder.ModelName(), s.workers, s.batchSize)
	vectors, err := embedAll(ctx, embedder, chunks, s.workers, s.batchSize)
	if err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, err)
	}

	var meta *indexMeta
	if existing.Model == "" {
		existing = indexMeta{
			Model:      embedder.ModelName(),
			Dimensions: embedder.Dimensions(),
			CreatedAt:  s.now(),
		}
		meta = &existing
	}
	if err := st.append(ctx, meta, chunks, vectors); err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, err)
	}

	n, err := st.count(ctx)
	if err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexBuild, op, err)
	}
	return infoFrom(location, existing, n), nil
}

// Load reads the index at location into memory.
func (s *IndexStore) Load(ctx context.Context, location string, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	const op = "index.load"

	if _, err := os.Stat(location); err != nil {
		return nil, domain.Wrap(domain.ErrIndexLoad, op, err)
	}

	st, err := openStore(location, false)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexLoad, op, err)
	}
	defer st.Close()

	meta, err := st.meta(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexLoad, op, err)
	}
	if meta.Model == "" {
		return nil, domain.Errorf(domain.ErrIndexLoad, op, "%s: index has no model metadata", location)
	}
	if !sameModel(meta, embedder) {
		return nil, domain.Wrap(domain.ErrIndexLoad, op, mismatch(meta, embedder))
	}

	entries, err := st.entries(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexLoad, op, err)
	}
	if len(entries) == 0 {
		return nil, domain.Errorf(domain.ErrIndexLoad, op, "%s: index has no entries", location)
	}

	norms := make([]float64, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != meta.Dimensions {
			return nil, domain.Errorf(domain.ErrIndexLoad, op, "entry %d has %d dimensions, expected %d",
				e.Seq, len(e.Embedding), meta.Dimensions)
		}
		norms[i] = norm(e.Embedding)
	}

	logger.Debug("Loaded %d entries from %s (model %s)", len(entries), location, meta.Model)
	return &Index{
		info:     infoFrom(location, meta, len(entries)),
		entries:  entries,
		norms:    norms,
		embedder: embedder,
	}, nil
}

// Index is an in-memory view of a persisted index.
type Index struct {
	info     domain.IndexInfo
	entries  []domain.IndexEntry
	norms    []float64
	embedder driven.EmbeddingService
}

type scoredEntry struct {
	idx   int
	score float64
}

// Search returns the k entries most similar to query.
func (ix *Index) Search(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	if k <= 0 {
		return nil, domain.Errorf(domain.ErrValidation, "index.search", "k must be positive, got %d", k)
	}

	q, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("index.search: %w", err)
	}
	if len(q) != ix.info.Dimensions {
		return nil, domain.Wrap(domain.ErrEmbedding, "index.search",
			fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrEmbeddingMismatch, len(q), ix.info.Dimensions))
	}
	qNorm := norm(q)

	scored := make([]scoredEntry, len(ix.entries))
	for i, e := range ix.entries {
		scored[i] = scoredEntry{idx: i, score: cosine(q, e.Embedding, qNorm, ix.norms[i])}
	}
	// Entries are held in insertion order, so a stable sort keeps ties in that order.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	if k > len(scored) {
		k = len(scored)
	}
	result := make(domain.QueryResult, k)
	for i := 0; i < k; i++ {
		result[i] = domain.SearchHit{
			Chunk: ix.entries[scored[i].idx].Chunk,
			Score: scored[i].score,
		}
	}
	return result, nil
}

// Info describes the loaded index.
func (ix *Index) Info() domain.IndexInfo {
	return ix.info
}

// Close releases the in-memory entries.
func (ix *Index) Close() error {
	ix.entries = nil
	ix.norms = nil
	return nil
}

// embedAll embeds chunks in batches on a worker pool. Each batch writes
// its own slice of the result, so vectors keep input order.
func embedAll(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk, workers, batchSize int) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	if batchSize <= 0 {
		batchSize = domain.DefaultEmbedBatchSize
	}
	dims := embedder.Dimensions()
	vectors := make([][]float32, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					fail(fmt.Errorf("embedding worker panic: %v", p))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}
			vecs, err := embedder.EmbedBatch(ctx, texts)
			if err != nil {
				fail(fmt.Errorf("chunks %d-%d (from %q): %w", start, end-1, batch[0].Title, err))
				return
			}
			if len(vecs) != len(batch) {
				fail(fmt.Errorf("chunks %d-%d: embedder returned %d vectors for %d texts",
					start, end-1, len(vecs), len(batch)))
				return
			}
			for i, vec := range vecs {
				if len(vec) != dims {
					fail(fmt.Errorf("chunk %d of %q: %w: got %d dimensions, expected %d",
						batch[i].Position, batch[i].Title, domain.ErrEmbeddingMismatch, len(vec), dims))
					return
				}
				vectors[start+i] = vec
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting embedding task: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func sameModel(m indexMeta, embedder driven.EmbeddingService) bool {
	return m.Model == embedder.ModelName() && m.Dimensions == embedder.Dimensions()
}

func mismatch(m indexMeta, embedder driven.EmbeddingService) error {
	return fmt.Errorf("%w: index built with %s (%d dimensions), embedder is %s (%d dimensions)",
		domain.ErrEmbeddingMismatch, m.Model, m.Dimensions, embedder.ModelName(), embedder.Dimensions())
}

func infoFrom(location string, m indexMeta, entries int) domain.IndexInfo {
	return domain.IndexInfo{
		Location:   location,
		Model:      m.Model,
		Dimensions: m.Dimensions,
		Entries:    entries,
		CreatedAt:  m.CreatedAt,
	}
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
