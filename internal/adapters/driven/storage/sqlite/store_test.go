package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/animerec/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/animerec/internal/core/domain"
)

// setupTestStore creates a migrated store in a temporary directory.
func setupTestStore(t *testing.T) *store {
	t.Helper()

	st, err := openStore(filepath.Join(t.TempDir(), "idx"), true)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })
	return st
}

func TestOpenStore_MissingDatabaseWithoutCreate(t *testing.T) {
	_, err := openStore(t.TempDir(), false)

	assert.Error(t, err)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.migrate(migrations.FS))

	var n int
	require.NoError(t, st.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStore_MetaRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	empty, err := st.meta(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Model)

	meta := &indexMeta{Model: "hashing-v1-4", Dimensions: 4, CreatedAt: created}
	chunks := []domain.Chunk{{ID: "c1", Title: "Steel Guardians", Genres: []string{"Mecha"}, Content: "robots"}}
	require.NoError(t, st.append(ctx, meta, chunks, [][]float32{{1, 0, 0, 0}}))

	got, err := st.meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hashing-v1-4", got.Model)
	assert.Equal(t, 4, got.Dimensions)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStore_EntriesPreserveOrderAndFields(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "a", Title: "Steel Guardians", Genres: []string{"Mecha", "Action"}, Source: "x.csv", Row: 1, Position: 0, Content: "one"},
		{ID: "b", Title: "Sakura Days", Content: "two", Row: 2},
	}
	vectors := [][]float32{{0.5, -0.25}, {1, 0}}
	require.NoError(t, st.append(ctx, nil, chunks, vectors))

	entries, err := st.entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].Seq, entries[1].Seq)
	assert.Equal(t, chunks[0], entries[0].Chunk)
	assert.Equal(t, vectors[0], entries[0].Embedding)
	assert.Nil(t, entries[1].Chunk.Genres)

	n, err := st.count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{0, 1, -1, 0.333, math.MaxFloat32, float32(math.Inf(-1))}

	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
