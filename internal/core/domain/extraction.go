package domain

import (
	"fmt"
	"strings"
)

// Role is the semantic role a retrieved chunk is classified into.
type Role int

// Available chunk roles.
const (
	// RoleUnclassified marks a chunk that matched no role.
	RoleUnclassified Role = iota

	// RoleConsolidated marks the consolidated debt table chunk.
	RoleConsolidated

	// RoleVIE marks the variable-interest-entity debt table chunk.
	RoleVIE
)

// String returns the evidence tag of the role.
func (r Role) String() string {
	switch r {
	case RoleConsolidated:
		return "CONSOLIDATED"
	case RoleVIE:
		return "VIE"
	default:
		return "UNCLASSIFIED"
	}
}

// MarshalText encodes the role as its tag.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Extraction field names reported in ExtractionResult.Missing.
const (
	FieldConsolidatedTotal = "consolidated_total"
	FieldConsolidatedNet   = "consolidated_net"
	FieldVIECurrent        = "vie_current"
	FieldVIELong           = "vie_long"
)

// DebtComponents holds the four figures that make up total debt.
// Values are in millions of USD; nil means the figure was not located.
type DebtComponents struct {
	ConsolidatedTotal *float64 `json:"consolidated_total"`
	ConsolidatedNet   *float64 `json:"consolidated_net"`
	VIECurrent        *float64 `json:"vie_current"`
	VIELong           *float64 `json:"vie_long"`
}

// Evidence justifies an extracted figure with its page and text.
type Evidence struct {
	// PageNumber is the page of the classified chunk, nil when unknown.
	PageNumber *int `json:"page_number"`

	// Role is the role the chunk was classified into.
	Role Role `json:"role"`

	// Snippet is the whitespace-normalised chunk text, truncated.
	Snippet string `json:"snippet"`
}

// ExtractionResult is the outcome of one debt extraction.
// It is computed per call and never persisted.
type ExtractionResult struct {
	// DebtTotal is the sum of all four components, nil unless all resolved.
	DebtTotal *float64 `json:"debt_total"`

	// Components are the individual figures.
	Components DebtComponents `json:"components"`

	// Missing lists the field names that could not be resolved.
	Missing []string `json:"missing"`

	// Evidence lists one entry per classified chunk.
	Evidence []Evidence `json:"evidence"`
}

// Complete reports whether every component resolved.
func (r *ExtractionResult) Complete() bool {
	return r != nil && len(r.Missing) == 0 && r.DebtTotal != nil
}

// Ready returns ErrExtractionIncomplete unless DebtTotal can be used
// by a downstream model.
func (r *ExtractionResult) Ready() error {
	if r == nil {
		return fmt.Errorf("%w: no result", ErrExtractionIncomplete)
	}
	if len(r.Missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrExtractionIncomplete, strings.Join(r.Missing, ", "))
	}
	if r.DebtTotal == nil {
		return fmt.Errorf("%w: debt total absent", ErrExtractionIncomplete)
	}
	return nil
}
