package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func newServer(t *testing.T, dims int, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(status)
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if status != http.StatusOK {
				http.Error(w, "model not found", status)
				return
			}
			var resp embedResponse
			for _, in := range req.Input {
				vec := make([]float64, dims)
				vec[len(in)%dims] = 1
				resp.Embeddings = append(resp.Embeddings, vec)
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, "ollama:all-minilm", s.ModelName())
	assert.NoError(t, s.Close())
}

func TestEmbed_Success(t *testing.T) {
	srv := newServer(t, 8, http.StatusOK)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	vec, err := s.Embed(context.Background(), "mecha")

	require.NoError(t, err)
	assert.Len(t, vec, 8)
	assert.Equal(t, float32(1), vec[5])
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := newServer(t, 4, http.StatusOK)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	_, err := s.Embed(context.Background(), "mecha")

	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.True(t, errors.Is(err, domain.ErrEmbeddingMismatch))
}

func TestEmbed_ServerError(t *testing.T) {
	srv := newServer(t, 8, http.StatusNotFound)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	_, err := s.Embed(context.Background(), "mecha")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbed_EmptyText(t *testing.T) {
	_, err := NewEmbeddingService(Config{}).Embed(context.Background(), " ")

	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestEmbedBatch(t *testing.T) {
	srv := newServer(t, 8, http.StatusOK)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 8})

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "bb"})

	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(1), vecs[0][1])
	assert.Equal(t, float32(1), vecs[1][2])
}

func TestEmbedBatch_EmptyInputs(t *testing.T) {
	s := NewEmbeddingService(Config{})

	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)

	_, err = s.EmbedBatch(context.Background(), []string{"ok", ""})
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestPing(t *testing.T) {
	ok := newServer(t, 8, http.StatusOK)
	assert.NoError(t, NewEmbeddingService(Config{BaseURL: ok.URL}).Ping(context.Background()))

	bad := newServer(t, 8, http.StatusInternalServerError)
	assert.Error(t, NewEmbeddingService(Config{BaseURL: bad.URL}).Ping(context.Background()))
}
