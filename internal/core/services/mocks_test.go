package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      domain.QueryResult
	searchErr error
	calls     int
	lastK     int
	closed    bool
}

func (m *mockVectorIndex) Search(_ context.Context, _ string, k int) (domain.QueryResult, error) {
	m.calls++
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Info() domain.IndexInfo {
	return domain.IndexInfo{Location: "mock", Model: "mock-embed", Dimensions: 8, Entries: len(m.hits)}
}

func (m *mockVectorIndex) Close() error {
	m.closed = true
	return nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu         sync.Mutex
	answer     string
	err        error
	calls      int
	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// firstTitleLLM answers with the first title in the context block.
type firstTitleLLM struct{ mockLLM }

func (m *firstTitleLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	_, _ = m.mockLLM.Generate(ctx, prompt, opts)
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "[1] ") {
			title := strings.TrimPrefix(line, "[1] ")
			if i := strings.Index(title, " ("); i >= 0 {
				title = title[:i]
			}
			return "You should watch " + title + ".", nil
		}
	}
	return "", nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

func hit(title string, score float64, genres ...string) domain.SearchHit {
	return domain.SearchHit{
		Chunk: domain.Chunk{
			ID:      strings.ToLower(strings.ReplaceAll(title, " ", "-")),
			Title:   title,
			Genres:  genres,
			Content: "Title: " + title + "\nGenre: " + strings.Join(genres, ", "),
		},
		Score: score,
	}
}
