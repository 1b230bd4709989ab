package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

const (
	consolidatedTable = "Debt and finance leases\nCurrent portion of long-term debt\n" +
		"Total debt and finance leases      $   2,456   $   5,757\n"
	vieTable = "Liabilities of consolidated VIEs\n" +
		"Current portion of debt and finance leases     2,114\n" +
		"Debt and finance leases, net of current portion     1,834\n"
)

func hit(pos, page int, text string) domain.SearchHit {
	return domain.SearchHit{
		Position: pos,
		Text:     text,
		Metadata: domain.ChunkMetadata{Source: "10k.pdf", PageNumber: domain.PageRef(page)},
	}
}

func TestDebtExtractor_ExtractDebtTotal(t *testing.T) {
	search := &mockSearch{hits: []domain.SearchHit{
		hit(0, 12, "Revenue by segment"),
		hit(1, 88, consolidatedTable),
		hit(2, 91, vieTable),
	}}
	extractor := NewDebtExtractor(search)

	result, err := extractor.ExtractDebtTotal(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DebtQuery, search.query)
	assert.Equal(t, DefaultCandidates, search.k)

	require.NotNil(t, result.DebtTotal)
	assert.Equal(t, 12161.0, *result.DebtTotal)
	assert.Empty(t, result.Missing)
	assert.True(t, result.Complete())
	assert.NoError(t, result.Ready())

	c := result.Components
	assert.Equal(t, 2456.0, *c.ConsolidatedTotal)
	assert.Equal(t, 5757.0, *c.ConsolidatedNet)
	assert.Equal(t, 2114.0, *c.VIECurrent)
	assert.Equal(t, 1834.0, *c.VIELong)

	require.Len(t, result.Evidence, 2)
	assert.Equal(t, domain.RoleConsolidated, result.Evidence[0].Role)
	assert.Equal(t, 88, *result.Evidence[0].PageNumber)
	assert.Equal(t, domain.RoleVIE, result.Evidence[1].Role)
	assert.Equal(t, 91, *result.Evidence[1].PageNumber)
	assert.NotContains(t, result.Evidence[1].Snippet, "\n")
}

func TestDebtExtractor_Options(t *testing.T) {
	search := &mockSearch{}
	extractor := NewDebtExtractor(search, WithCandidates(12), WithWindow(5))

	result, err := extractor.ExtractDebtTotal(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 12, search.k)
	assert.Equal(t, 5, extractor.window)
	assert.Nil(t, result.DebtTotal)
}

func TestDebtExtractor_Extract_ConsolidatedPair(t *testing.T) {
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract([]domain.SearchHit{hit(0, 1, "Total debt and finance leases $2,456 $5,757")})

	assert.Equal(t, 2456.0, *result.Components.ConsolidatedTotal)
	assert.Equal(t, 5757.0, *result.Components.ConsolidatedNet)
	assert.Nil(t, result.DebtTotal)
	assert.Equal(t, []string{domain.FieldVIECurrent, domain.FieldVIELong}, result.Missing)
}

func TestDebtExtractor_Extract_VIEPair(t *testing.T) {
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract([]domain.SearchHit{
		hit(0, 1, "VIEs ... Current portion of debt and finance leases 2,114 ... net of current portion 1,834"),
	})

	assert.Equal(t, 2114.0, *result.Components.VIECurrent)
	assert.Equal(t, 1834.0, *result.Components.VIELong)
	assert.Equal(t, []string{domain.FieldConsolidatedTotal, domain.FieldConsolidatedNet}, result.Missing)
}

func TestDebtExtractor_Extract_NothingFound(t *testing.T) {
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract(nil)

	assert.Nil(t, result.DebtTotal)
	assert.Equal(t, []string{
		domain.FieldConsolidatedTotal,
		domain.FieldConsolidatedNet,
		domain.FieldVIECurrent,
		domain.FieldVIELong,
	}, result.Missing)
	assert.Empty(t, result.Evidence)
	assert.ErrorIs(t, result.Ready(), domain.ErrExtractionIncomplete)
}

func TestDebtExtractor_Extract_ImplausibleFigures(t *testing.T) {
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract([]domain.SearchHit{
		hit(0, 4, "Total debt and finance leases $50 $99999"),
		hit(1, 5, vieTable),
	})

	assert.Nil(t, result.Components.ConsolidatedTotal)
	assert.Nil(t, result.Components.ConsolidatedNet)
	assert.Nil(t, result.DebtTotal, "no partial sums")
	assert.Equal(t, []string{domain.FieldConsolidatedTotal, domain.FieldConsolidatedNet}, result.Missing)
	// Evidence is kept for classified chunks even when parsing fails.
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, 4, *result.Evidence[0].PageNumber)
}

func TestDebtExtractor_Extract_PartialVIE(t *testing.T) {
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract([]domain.SearchHit{
		hit(0, 1, consolidatedTable),
		hit(1, 2, "VIEs Current portion of debt and finance leases 2,114"),
	})

	assert.Equal(t, []string{domain.FieldVIELong}, result.Missing)
	assert.Nil(t, result.DebtTotal)
	assert.Contains(t, result.Ready().Error(), domain.FieldVIELong)
}

func TestDebtExtractor_Extract_SnippetTruncated(t *testing.T) {
	long := consolidatedTable
	for len([]rune(long)) < 2*MaxSnippetLength {
		long += " filler text é"
	}
	extractor := NewDebtExtractor(nil)

	result := extractor.Extract([]domain.SearchHit{hit(0, 1, long)})

	require.Len(t, result.Evidence, 1)
	assert.Len(t, []rune(result.Evidence[0].Snippet), MaxSnippetLength)
}

func TestDebtExtractor_Extract_UnknownPage(t *testing.T) {
	extractor := NewDebtExtractor(nil)
	h := domain.SearchHit{Text: consolidatedTable}

	result := extractor.Extract([]domain.SearchHit{h})

	require.Len(t, result.Evidence, 1)
	assert.Nil(t, result.Evidence[0].PageNumber)
}

func TestDebtExtractor_ExtractDebtTotal_SearchError(t *testing.T) {
	extractor := NewDebtExtractor(&mockSearch{err: domain.ErrIndexNotLoaded})

	result, err := extractor.ExtractDebtTotal(context.Background())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrIndexNotLoaded)
}
