package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func TestEnsureIndex_BuildsWhenMissing(t *testing.T) {
	settings := testSettings(t, writeCatalog(t, threeTitles))
	store := &mockStore{}

	info, built, err := EnsureIndex(context.Background(), settings, mockDeps(store, nil), false)

	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, 1, store.builds)
	assert.Equal(t, 1, info.Entries)
}

func TestEnsureIndex_ExistingIsInspected(t *testing.T) {
	settings := testSettings(t, writeCatalog(t, threeTitles))
	index := &mockVectorIndex{hits: domain.QueryResult{hit("Night Blade", 0.3)}}
	store := &mockStore{exists: true, index: index}

	info, built, err := EnsureIndex(context.Background(), settings, mockDeps(store, nil), false)

	require.NoError(t, err)
	assert.False(t, built)
	assert.Zero(t, store.builds)
	assert.Equal(t, 1, info.Entries)
	assert.True(t, index.closed)
}

func TestEnsureIndex_ForceRebuilds(t *testing.T) {
	settings := testSettings(t, writeCatalog(t, threeTitles))
	require.NoError(t, os.MkdirAll(settings.Index.Dir, 0700))
	stale := filepath.Join(settings.Index.Dir, "stale.db")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0600))
	store := &mockStore{exists: true}

	_, built, err := EnsureIndex(context.Background(), settings, mockDeps(store, nil), true)

	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, 1, store.builds)
	assert.NoFileExists(t, stale)
}

func TestEnsureIndex_ForceKeepsIndexWhenCatalogMissing(t *testing.T) {
	settings := testSettings(t, filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, os.MkdirAll(settings.Index.Dir, 0700))
	kept := filepath.Join(settings.Index.Dir, "index.db")
	require.NoError(t, os.WriteFile(kept, []byte("ok"), 0600))
	store := &mockStore{exists: true}

	_, _, err := EnsureIndex(context.Background(), settings, mockDeps(store, nil), true)

	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.FileExists(t, kept)
	assert.Zero(t, store.builds)
}

func TestInspectIndex(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		settings := testSettings(t, "")
		_, err := InspectIndex(context.Background(), settings, mockDeps(&mockStore{}, nil))
		assert.ErrorIs(t, err, domain.ErrIndexLoad)
	})

	t.Run("load failure keeps kind", func(t *testing.T) {
		settings := testSettings(t, "")
		store := &mockStore{exists: true, loadErr: domain.Wrap(domain.ErrIndexLoad, "load", domain.ErrEmbeddingMismatch)}
		_, err := InspectIndex(context.Background(), settings, mockDeps(store, nil))
		assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
	})

	t.Run("requires store", func(t *testing.T) {
		_, err := InspectIndex(context.Background(), domain.DefaultSettings(), Dependencies{})
		assert.ErrorIs(t, err, domain.ErrConfig)
	})
}

type unreachableEmbedder struct{ mockEmbedder }

func (unreachableEmbedder) Ping(context.Context) error { return errors.New("connection refused") }

func TestEnsureIndex_UnreachableEmbedderFailsBeforeBuild(t *testing.T) {
	settings := testSettings(t, writeCatalog(t, threeTitles))
	store := &mockStore{}
	deps := mockDeps(store, nil)
	loader := deps.Loader.(*mockLoader)
	deps.Embedder = unreachableEmbedder{}

	_, built, err := EnsureIndex(context.Background(), settings, deps, false)

	require.Error(t, err)
	assert.False(t, built)
	assert.Equal(t, domain.ErrEmbedding, domain.KindOf(err))
	assert.Contains(t, err.Error(), "mock-embed unreachable")
	assert.Equal(t, 0, loader.calls)
	assert.Equal(t, 0, store.builds)
	_, statErr := os.Stat(settings.Index.Dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestEnsureIndex_ForceKeepsIndexWhenEmbedderUnreachable(t *testing.T) {
	settings := testSettings(t, writeCatalog(t, threeTitles))
	require.NoError(t, os.MkdirAll(settings.Index.Dir, 0700))
	kept := filepath.Join(settings.Index.Dir, "index.db")
	require.NoError(t, os.WriteFile(kept, []byte("ok"), 0600))
	store := &mockStore{exists: true}
	deps := mockDeps(store, nil)
	deps.Embedder = unreachableEmbedder{}

	_, _, err := EnsureIndex(context.Background(), settings, deps, true)

	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.FileExists(t, kept)
	assert.Zero(t, store.builds)
}
