package driving

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// DebtExtractor locates the debt figures in the indexed filing.
type DebtExtractor interface {
	// ExtractDebtTotal returns the figures, evidence and gaps.
	// Gaps are reported in the result, never as errors.
	ExtractDebtTotal(ctx context.Context) (*domain.ExtractionResult, error)
}
