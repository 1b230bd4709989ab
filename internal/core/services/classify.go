package services

import (
	"regexp"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

var (
	// vieKeywordRe matches the variable interest entity keyword.
	vieKeywordRe = regexp.MustCompile(`(?i)\bVIEs?\b|\bvariable\s+interest\s+entit(?:y|ies)\b`)

	totalDebtLabelRe      = regexp.MustCompile(`(?i)Total\s+debt\s+and\s+finance\s+leases`)
	currentPortionLabelRe = regexp.MustCompile(`(?i)Current\s+portion\s+of\s+debt\s+and\s+finance\s+leases`)
	netOfCurrentLabelRe   = regexp.MustCompile(
		`(?i)(?:Debt\s+and\s+finance\s+leases\s*,?\s*)?net\s+of\s+(?:the\s+)?current\s+portion`)
)

// Classify assigns a role to chunk text.
//
// A consolidated chunk carries the total debt label and never mentions VIEs.
// A VIE chunk mentions VIEs and carries the current portion label.
func Classify(text string) domain.Role {
	t := normalise(text)
	mentionsVIE := vieKeywordRe.MatchString(t)

	switch {
	case !mentionsVIE && totalDebtLabelRe.MatchString(t):
		return domain.RoleConsolidated
	case mentionsVIE && currentPortionLabelRe.MatchString(t):
		return domain.RoleVIE
	default:
		return domain.RoleUnclassified
	}
}

// RoleSelection holds the chunk chosen for each role, nil when none matched.
type RoleSelection struct {
	Consolidated *domain.SearchHit
	VIE          *domain.SearchHit
}

// SelectRoles walks hits in relevance order and keeps the first hit of
// each role. Later hits of an already filled role are ignored.
func SelectRoles(hits []domain.SearchHit) RoleSelection {
	var sel RoleSelection
	for i := range hits {
		if sel.Consolidated != nil && sel.VIE != nil {
			break
		}
		switch Classify(hits[i].Text) {
		case domain.RoleConsolidated:
			if sel.Consolidated == nil {
				sel.Consolidated = &hits[i]
			}
		case domain.RoleVIE:
			if sel.VIE == nil {
				sel.VIE = &hits[i]
			}
		}
	}
	return sel
}
