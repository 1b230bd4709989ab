package driven

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// PageLoader reads a document into one Page per physical page.
type PageLoader interface {
	// LoadPages returns pages in physical order, numbered from 1.
	// Pages without extractable text have empty Text.
	// An unreadable document returns domain.ErrSourceUnreadable.
	LoadPages(ctx context.Context, path string) ([]domain.Page, error)
}
