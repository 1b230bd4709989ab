package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func manifest(version string, created time.Time, count int) domain.IndexManifest {
	return domain.IndexManifest{
		Version:    version,
		CreatedAt:  created,
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		ChunkCount: count,
		Source:     "data/chunks/chunks.jsonl",
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DBFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), manifest("v1", time.Now(), 1)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	builds, err := second.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, manifest("v1", base, 10)))
	require.NoError(t, store.Record(ctx, manifest("v2", base.Add(time.Hour), 20)))
	require.NoError(t, store.Record(ctx, manifest("v3", base.Add(2*time.Hour), 30)))

	builds, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "v3", builds[0].Version)
	assert.Equal(t, "v2", builds[1].Version)
	assert.Equal(t, 30, builds[0].ChunkCount)
	assert.Equal(t, 1536, builds[0].Dimensions)
	assert.Equal(t, "data/chunks/chunks.jsonl", builds[0].Source)
	assert.True(t, builds[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecord_UpdatesExistingVersion(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.Record(ctx, manifest("v1", now, 10)))
	require.NoError(t, store.Record(ctx, manifest("v1", now, 11)))

	builds, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, 11, builds[0].ChunkCount)
}

func TestRecord_RequiresVersion(t *testing.T) {
	store := setupTestStore(t)
	err := store.Record(context.Background(), domain.IndexManifest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestList_Empty(t *testing.T) {
	store := setupTestStore(t)
	builds, err := store.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, builds)
}
