package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_Success(t *testing.T) {
	store, dir := newTestStore(t)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".debtscan", "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(dir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "text-embedding-3-small"))
	require.NoError(t, store.Set("retrieval.k", 30))
	require.NoError(t, store.Set("retrieval.timeout_seconds", 2.5))
	require.NoError(t, store.Set("logging.verbose", true))

	assert.Equal(t, "text-embedding-3-small", store.GetString("embedding.model"))
	assert.Equal(t, 30, store.GetInt("retrieval.k"))
	assert.Equal(t, 30.0, store.GetFloat("retrieval.k"))
	assert.Equal(t, 2.5, store.GetFloat("retrieval.timeout_seconds"))
	assert.True(t, store.GetBool("logging.verbose"))

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("retrieval.k"))
	assert.Equal(t, 0, store.GetInt("embedding.model"))
	assert.Equal(t, 0.0, store.GetFloat("logging.verbose"))
	assert.False(t, store.GetBool("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Persistence(t *testing.T) {
	store1, dir := newTestStore(t)

	require.NoError(t, store1.Set("embedding.provider", "openai"))
	require.NoError(t, store1.Set("chunking.chunk_size", 1200))
	require.NoError(t, store1.Set("retrieval.timeout_seconds", 10.0))
	require.NoError(t, store1.Set("logging.verbose", true))

	store2, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store2.GetString("embedding.provider"))
	assert.Equal(t, 1200, store2.GetInt("chunking.chunk_size"))
	assert.Equal(t, 10.0, store2.GetFloat("retrieval.timeout_seconds"))
	assert.True(t, store2.GetBool("logging.verbose"))
}

func TestConfigStore_SavesNestedTables(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("embedding.base_url", "http://localhost:11434"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "model = 'nomic-embed-text'")
}

func TestConfigStore_LoadsHandWrittenTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[chunking]
chunk_size = 800
chunk_overlap = 100

[extraction]
min_value = 100.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 800, store.GetInt("chunking.chunk_size"))
	assert.Equal(t, 100, store.GetInt("chunking.chunk_overlap"))
	assert.Equal(t, 100.0, store.GetFloat("extraction.min_value"))
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	val, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.model", "all-minilm"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("embedding.provider", "openai"))

	// A directory in place of the file makes the write fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("embedding.model", "x"))
	assert.Error(t, store.Save())
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("embedding.provider", "openai"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Set("channel", make(chan int))

	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("retrieval.k", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.k")
	assert.True(t, ok)
}

func TestNestMap_InvertsFlatten(t *testing.T) {
	flat := map[string]any{
		"embedding.model":    "m",
		"embedding.provider": "openai",
		"top":                int64(1),
	}

	assert.Equal(t, flat, flattenMap(nestMap(flat), ""))
}
