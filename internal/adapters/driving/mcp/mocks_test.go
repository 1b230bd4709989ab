package mcp

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	hits  []domain.SearchHit
	err   error
	query string
	k     int
}

func (m *mockSearchService) Search(_ context.Context, query string, k int) ([]domain.SearchHit, error) {
	m.query = query
	m.k = k
	return m.hits, m.err
}

// mockExtractor is a mock implementation of driving.DebtExtractor.
type mockExtractor struct {
	result *domain.ExtractionResult
	err    error
}

func (m *mockExtractor) ExtractDebtTotal(_ context.Context) (*domain.ExtractionResult, error) {
	return m.result, m.err
}

// mockManifest is a mock implementation of ManifestProvider.
type mockManifest struct {
	manifest domain.IndexManifest
	loaded   bool
}

func (m *mockManifest) Manifest() (domain.IndexManifest, bool) {
	return m.manifest, m.loaded
}

// mockHistory is a mock implementation of BuildHistory.
type mockHistory struct {
	builds []domain.IndexManifest
	err    error
}

func (m *mockHistory) List(_ context.Context, _ int) ([]domain.IndexManifest, error) {
	return m.builds, m.err
}

func float(v float64) *float64 { return &v }
