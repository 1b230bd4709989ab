package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
)

// defaultSearchK is the number of hits returned when k is omitted.
const defaultSearchK = 4

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to search the filing for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 4, at most 1000)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	PageNumber *int    `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Source     string  `json:"source,omitempty"`
	Distance   float32 `json:"distance"`
	Text       string  `json:"text"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

// ExtractInput is the input schema for the extract_debt_total tool.
type ExtractInput struct{}

// ExtractOutput is the output schema for the extract_debt_total tool.
// DebtTotal is only usable when Complete is true.
type ExtractOutput struct {
	DebtTotal  *float64              `json:"debt_total"`
	Complete   bool                  `json:"complete"`
	Components domain.DebtComponents `json:"components"`
	Missing    []string              `json:"missing"`
	Evidence   []EvidenceOutput      `json:"evidence"`
}

// EvidenceOutput justifies one figure with the chunk it was read from.
type EvidenceOutput struct {
	PageNumber *int   `json:"page_number"`
	Role       string `json:"role" jsonschema:"CONSOLIDATED or VIE"`
	Snippet    string `json:"snippet"`
}

// errExtractorUnavailable is returned when no extractor was wired.
var errExtractorUnavailable = errors.New("mcp: debt extraction is not configured")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over the indexed filing; returns chunks nearest first with their page numbers",
	}, s.handleSearch)

	if s.ports.Extractor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name: "extract_debt_total",
			Description: "Extract total debt and finance leases (USD millions) from the consolidated and VIE debt tables, " +
				"with page evidence. The total is null unless all four components were found.",
		}, s.handleExtract)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultSearchK
	}
	if k > driving.MaxSearchK {
		return nil, SearchOutput{}, fmt.Errorf("%w: k must be at most %d, got %d",
			domain.ErrInvalidInput, driving.MaxSearchK, k)
	}

	hits, err := s.ports.Search.Search(ctx, input.Query, k)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}

	for i := range hits {
		output.Results[i] = SearchResultOutput{
			PageNumber: hits[i].Metadata.PageNumber,
			ChunkIndex: hits[i].Metadata.ChunkIndex,
			Source:     hits[i].Metadata.Source,
			Distance:   hits[i].Distance,
			Text:       hits[i].Text,
			Unresolved: hits[i].Unresolved,
		}
	}

	return nil, output, nil
}

// handleExtract handles the extract_debt_total tool invocation.
func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	if s.ports.Extractor == nil {
		return nil, ExtractOutput{}, errExtractorUnavailable
	}

	result, err := s.ports.Extractor.ExtractDebtTotal(ctx)
	if err != nil {
		return nil, ExtractOutput{}, err
	}

	output := ExtractOutput{
		DebtTotal:  result.DebtTotal,
		Complete:   result.Ready() == nil,
		Components: result.Components,
		Missing:    result.Missing,
		Evidence:   make([]EvidenceOutput, len(result.Evidence)),
	}
	for i, ev := range result.Evidence {
		output.Evidence[i] = EvidenceOutput{
			PageNumber: ev.PageNumber,
			Role:       ev.Role.String(),
			Snippet:    ev.Snippet,
		}
	}

	return nil, output, nil
}
