/*
Package benchmark estimates context token savings from budgeted rule
selection.

It compares two injection strategies for a given prompt:
 1. Naive: inject every catalog rule into the context window.
 2. Selected: inject only the scored, token-bounded subset.

Token figures come from the catalog's per-rule estimates.
*/
package benchmark

import (
	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/scorer"
)

// Estimate is the token consumption of one injection strategy.
type Estimate struct {
	RuleCount int    `json:"ruleCount"`
	Tokens    int    `json:"tokens"`
	Strategy  string `json:"strategy"`
}

// Result compares naive full-catalog injection against budgeted selection.
type Result struct {
	FullCatalog    Estimate `json:"fullCatalog"`
	Selected       Estimate `json:"selected"`
	TokenSavings   int      `json:"tokenSavings"`
	SavingsPercent float64  `json:"savingsPercent"`
}

// Compare computes the comparison for one selection against its catalog.
func Compare(cat *catalog.Catalog, selection scorer.Selection) Result {
	full := Estimate{
		RuleCount: cat.Len(),
		Tokens:    cat.TotalTokens(),
		Strategy:  "inject entire catalog",
	}
	selected := Estimate{
		RuleCount: len(selection.Rules),
		Tokens:    selection.TotalTokens(),
		Strategy:  "scored, token-bounded selection",
	}

	res := Result{
		FullCatalog:  full,
		Selected:     selected,
		TokenSavings: full.Tokens - selected.Tokens,
	}
	if full.Tokens > 0 {
		res.SavingsPercent = float64(res.TokenSavings) / float64(full.Tokens) * 100
	}
	return res
}
