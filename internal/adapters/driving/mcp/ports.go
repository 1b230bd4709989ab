package mcp

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
)

// ManifestProvider reports the manifest of the loaded snapshot.
type ManifestProvider interface {
	Manifest() (domain.IndexManifest, bool)
}

// BuildHistory lists previously published snapshots, newest first.
type BuildHistory interface {
	List(ctx context.Context, limit int) ([]domain.IndexManifest, error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search over the loaded snapshot.
	Search driving.SearchService

	// Extractor locates the debt figures. Optional.
	Extractor driving.DebtExtractor

	// Manifest describes the loaded snapshot. Optional.
	Manifest ManifestProvider

	// History lists published builds. Optional.
	History BuildHistory
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
