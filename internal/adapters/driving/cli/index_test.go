package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/debtscan/internal/core/domain"
)

func writeChunks(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	require.NoError(t, jsonl.WriteFile(path, []domain.Chunk{
		{Text: "alpha", Metadata: domain.ChunkMetadata{PageNumber: domain.PageRef(1)}},
		{Text: "beta", Metadata: domain.ChunkMetadata{PageNumber: domain.PageRef(2)}},
	}))
	return path
}

func TestIndexBuildCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := writeChunks(t)

	out, err := execute("index", "build", path)

	require.NoError(t, err)
	assert.Len(t, ts.index.chunks, 2)
	assert.Equal(t, path, ts.index.source)
	assert.Contains(t, out, "Published snapshot 20260101T000000Z-abc")
	assert.Contains(t, out, "Chunks:     2")
	assert.Contains(t, out, "Model:      test-model")
}

func TestIndexBuildCmd_MissingChunkFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("index", "build", filepath.Join(t.TempDir(), "none.jsonl"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactMissing)
}

func TestIndexBuildCmd_BuildError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.err = domain.ErrCredentialsMissing

	_, err := execute("index", "build", writeChunks(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	assert.Contains(t, err.Error(), "index build failed")
}

func TestIndexListCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "* v3")
	assert.Contains(t, out, "  v1")
	assert.Contains(t, out, "12 chunks")
	assert.Contains(t, out, "2026-01-02 03:04")
}

func TestIndexListCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.snapshots.manifests = map[string]domain.IndexManifest{}

	out, err := execute("index", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots found")
}

func TestIndexHistoryCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.catalog.limit)
	assert.Contains(t, out, "v3")
	assert.Contains(t, out, "14 chunks x 3")
	assert.Contains(t, out, "data/chunks.jsonl")
}

func TestIndexHistoryCmd_NoCatalog(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{Settings: ts.settings})

	_, err := execute("index", "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "build catalog not configured")
}

func TestIndexPruneCmd(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		keepSetting int
		wantKeep    int
		wantOut     []string
	}{
		{
			name:        "uses configured keep",
			args:        []string{"index", "prune"},
			keepSetting: 3,
			wantKeep:    3,
			wantOut:     []string{"Nothing to prune."},
		},
		{
			name:        "flag overrides setting",
			args:        []string{"index", "prune", "--keep", "1"},
			keepSetting: 3,
			wantKeep:    1,
			wantOut:     []string{"Removed v1", "Removed v2"},
		},
		{
			name:        "zero setting falls back to default",
			args:        []string{"index", "prune"},
			keepSetting: 0,
			wantKeep:    domain.DefaultAppSettings().Index.Keep,
			wantOut:     []string{"Nothing to prune."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()
			ts.settings.settings.Index.Keep = tt.keepSetting

			out, err := execute(tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantKeep, ts.snapshots.keep)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestIndexPruneCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.snapshots.pruneErr = domain.ErrInvalidInput

	_, err := execute("index", "prune", "--keep", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
