package cli

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings  domain.AppSettings
	values    map[string]string
	setErr    error
	provider  domain.AIProvider
	model     string
	apiKey    string
	configErr error
}

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if m.configErr != nil {
		return m.configErr
	}
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.size", "embedding.model"}
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	result *driving.IngestResult
	err    error
	path   string
}

func (m *mockIngestService) Ingest(_ context.Context, path string) (*driving.IngestResult, error) {
	m.path = path
	return m.result, m.err
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	chunks   []domain.Chunk
	source   string
	err      error
	progress driving.ProgressFunc
}

func (m *mockIndexService) Build(_ context.Context, chunks []domain.Chunk, source string) (*domain.IndexManifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.chunks = chunks
	m.source = source
	return &domain.IndexManifest{
		Version:    "20260101T000000Z-abc",
		Model:      "test-model",
		Dimensions: 3,
		ChunkCount: len(chunks),
		Source:     source,
	}, nil
}

func (m *mockIndexService) SetProgress(fn driving.ProgressFunc) { m.progress = fn }

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	mu       sync.Mutex
	hits     []domain.SearchHit
	err      error
	openErr  error
	opens    int
	reloads  int
	queries  []string
	manifest *domain.IndexManifest
}

func (m *mockRetriever) Search(_ context.Context, query string, k int) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockRetriever) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	return m.openErr
}

func (m *mockRetriever) Reload(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	return nil
}

func (m *mockRetriever) Manifest() (domain.IndexManifest, bool) {
	if m.manifest == nil {
		return domain.IndexManifest{}, false
	}
	return *m.manifest, true
}

func (m *mockRetriever) Close() error { return nil }

// mockExtractor implements driving.DebtExtractor for testing.
type mockExtractor struct {
	result *domain.ExtractionResult
	err    error
}

func (m *mockExtractor) ExtractDebtTotal(_ context.Context) (*domain.ExtractionResult, error) {
	return m.result, m.err
}

// mockSnapshotStore implements driven.SnapshotStore for testing.
type mockSnapshotStore struct {
	manifests map[string]domain.IndexManifest
	current   string
	keep      int
	pruneErr  error
}

func (m *mockSnapshotStore) Publish(_ context.Context, _ *driven.Snapshot) (domain.IndexManifest, error) {
	return domain.IndexManifest{}, domain.ErrNotImplemented
}

func (m *mockSnapshotStore) Open(_ context.Context) (*driven.Snapshot, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockSnapshotStore) Current(_ context.Context) (string, error) {
	if m.current == "" {
		return "", &domain.ArtifactError{Artifact: "snapshot", Path: "CURRENT"}
	}
	return m.current, nil
}

func (m *mockSnapshotStore) Versions(_ context.Context) ([]string, error) {
	versions := make([]string, 0, len(m.manifests))
	for v := range m.manifests {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *mockSnapshotStore) Manifest(_ context.Context, version string) (domain.IndexManifest, error) {
	manifest, ok := m.manifests[version]
	if !ok {
		return domain.IndexManifest{}, domain.ErrNotFound
	}
	return manifest, nil
}

func (m *mockSnapshotStore) Prune(ctx context.Context, keep int) ([]string, error) {
	m.keep = keep
	if m.pruneErr != nil {
		return nil, m.pruneErr
	}
	versions, _ := m.Versions(ctx)
	var removed []string
	for len(versions) > keep {
		if versions[0] != m.current {
			removed = append(removed, versions[0])
			delete(m.manifests, versions[0])
		}
		versions = versions[1:]
	}
	return removed, nil
}

// mockCatalog implements driven.BuildCatalog for testing.
type mockCatalog struct {
	builds []domain.IndexManifest
	limit  int
}

func (m *mockCatalog) Record(_ context.Context, manifest domain.IndexManifest) error {
	m.builds = append([]domain.IndexManifest{manifest}, m.builds...)
	return nil
}

func (m *mockCatalog) List(_ context.Context, limit int) ([]domain.IndexManifest, error) {
	m.limit = limit
	if limit < len(m.builds) {
		return m.builds[:limit], nil
	}
	return m.builds, nil
}

func (m *mockCatalog) Close() error { return nil }

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	settings  *mockSettingsService
	ingest    *mockIngestService
	index     *mockIndexService
	retriever *mockRetriever
	extractor *mockExtractor
	snapshots *mockSnapshotStore
	catalog   *mockCatalog
}

func float(v float64) *float64 { return &v }

func completeResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		DebtTotal: float(12161),
		Components: domain.DebtComponents{
			ConsolidatedTotal: float(2456),
			ConsolidatedNet:   float(5757),
			VIECurrent:        float(2114),
			VIELong:           float(1834),
		},
		Missing: []string{},
		Evidence: []domain.Evidence{
			{PageNumber: domain.PageRef(88), Role: domain.RoleConsolidated, Snippet: "Total debt and finance leases 2,456 5,757"},
			{PageNumber: domain.PageRef(89), Role: domain.RoleVIE, Snippet: "VIE current portion 2,114 1,834"},
		},
	}
}

// setupTestServices injects mocks for every service and returns them with
// a cleanup function that restores the previous state.
func setupTestServices() (*testServices, func()) {
	created := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	ts := &testServices{
		settings: newMockSettings(),
		ingest: &mockIngestService{result: &driving.IngestResult{
			Pages:      3,
			BlankPages: 1,
			Chunks: []domain.Chunk{
				{Text: "page one", Metadata: domain.ChunkMetadata{Source: "r.pdf", PageNumber: domain.PageRef(1)}},
				{Text: "page three", Metadata: domain.ChunkMetadata{Source: "r.pdf", PageNumber: domain.PageRef(3)}},
			},
		}},
		index: &mockIndexService{},
		retriever: &mockRetriever{hits: []domain.SearchHit{
			{Text: "Total debt and finance leases", Position: 0, Distance: 0.25,
				Metadata: domain.ChunkMetadata{PageNumber: domain.PageRef(88)}},
			{Text: "VIE debt", Position: 1, Distance: 0.5,
				Metadata: domain.ChunkMetadata{PageNumber: domain.PageRef(89)}},
			{Position: 7, Distance: 0.75, Unresolved: true},
		}},
		extractor: &mockExtractor{result: completeResult()},
		snapshots: &mockSnapshotStore{
			manifests: map[string]domain.IndexManifest{
				"v1": {Version: "v1", CreatedAt: created, ChunkCount: 10, Model: "m1"},
				"v2": {Version: "v2", CreatedAt: created, ChunkCount: 12, Model: "m2"},
				"v3": {Version: "v3", CreatedAt: created, ChunkCount: 14, Model: "m2"},
			},
			current: "v3",
		},
		catalog: &mockCatalog{builds: []domain.IndexManifest{
			{Version: "v3", CreatedAt: created, ChunkCount: 14, Dimensions: 3, Source: "data/chunks.jsonl"},
		}},
	}

	oldBootstrap := bootstrap
	bootstrap = nil
	SetServices(&Services{
		Settings:  ts.settings,
		Ingest:    ts.ingest,
		Index:     ts.index,
		Retriever: ts.retriever,
		Extractor: ts.extractor,
		Snapshots: ts.snapshots,
		Catalog:   ts.catalog,
	})

	return ts, func() {
		SetServices(nil)
		bootstrap = oldBootstrap
		resetFlags()
	}
}

// resetFlags restores flag variables, which cobra keeps between executions.
func resetFlags() {
	verbose = false
	configDir = ""
	indexDir = ""
	searchLimit = 4
	searchJSON = false
	extractJSON = false
	extractStrict = false
	ingestOutput = DefaultChunksFile
	historyLimit = 10
	pruneKeep = 0
	providerModel = ""
	providerAPIKey = ""
	serveAddr = ":8080"
	versionShort = false
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
