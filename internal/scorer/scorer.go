/*
Package scorer ranks catalog rules against a project context, user intent,
and prompt class, then selects a token-bounded subset.

Scoring is a pure weighted sum over catalog metadata: it never consults
fetch results, selection history, or catalog order, so scores are stable
integers that can be computed in isolation and in any order.
*/
package scorer

import (
	"sort"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/classifier"
	"github.com/PaulDuvall/rules-engine/internal/detector"
	"github.com/PaulDuvall/rules-engine/internal/intent"
)

// Scoring weights. These are fixed contract values; changing them changes
// ranking behavior across every caller.
const (
	weightLanguageMatch  = 100
	weightFrameworkMatch = 100
	weightCloudMatch     = 75
	weightMaturityMatch  = 50
	weightPerTopicMatch  = 30
	weightBaseCategory   = 20
	weightUrgentSecurity = 25
)

// securityTopics is the security-adjacent topic set that earns the
// urgency bonus when the user signals high urgency.
var securityTopics = map[string]bool{
	"security":       true,
	"authentication": true,
	"authorization":  true,
	"secrets":        true,
	"encryption":     true,
	"compliance":     true,
}

// ScoredRule pairs a catalog rule with its computed score.
type ScoredRule struct {
	Rule  catalog.Rule `json:"rule"`
	Score int          `json:"score"`
}

// Selection is the outcome of a select call. Skipped distinguishes "the
// prompt was non-actionable, selection never ran" from "selection ran and
// nothing fit".
type Selection struct {
	Rules   []ScoredRule `json:"rules"`
	Skipped bool         `json:"skipped"`
}

// TotalTokens returns the summed token estimate of the selected rules.
func (s Selection) TotalTokens() int {
	total := 0
	for _, sr := range s.Rules {
		total += sr.Rule.EstimatedTokens
	}
	return total
}

// Score computes the weighted relevance score for a single rule.
// The classDef must be the classifier definition for the active class
// (the zero Definition for UNCLEAR works and contributes nothing).
func Score(r catalog.Rule, ctx *detector.Context, it intent.Intent, classDef classifier.Definition) int {
	score := 0

	if r.Language != "" && ctx.HasLanguage(r.Language) {
		score += weightLanguageMatch
	}
	if r.Framework != "" && ctx.HasFramework(r.Framework) {
		score += weightFrameworkMatch
	}
	if r.CloudProvider != "" && ctx.HasCloudProvider(r.CloudProvider) {
		score += weightCloudMatch
	}
	if r.MatchesMaturity(ctx.Maturity) {
		score += weightMaturityMatch
	}

	for _, topic := range it.Topics {
		if r.HasTopic(topic) {
			score += weightPerTopicMatch
		}
	}

	if r.Category == catalog.CategoryBase {
		score += weightBaseCategory
	}

	if it.Urgency == intent.UrgencyHigh {
		for _, topic := range r.Topics {
			if securityTopics[topic] {
				score += weightUrgentSecurity
				break
			}
		}
	}

	if classDef.Actionable && classDef.Boost > 0 {
		for _, topic := range classDef.BoostTopics {
			if r.HasTopic(topic) {
				score += classDef.Boost
				break
			}
		}
	}

	return score
}

// Select scores every catalog rule and returns the highest-ranked subset
// whose summed token estimates stay within maxTokens and whose count stays
// within maxRules.
//
// Ordering is score descending, ties broken by path ascending, so results
// are stable regardless of catalog order. The budget walk is greedy but
// skipping: a rule too large for the remaining budget is passed over
// without aborting, letting smaller lower-ranked rules still fit.
//
// A non-actionable class short-circuits with Skipped set and no scoring
// performed.
func Select(rules []catalog.Rule, ctx *detector.Context, it intent.Intent, classDef classifier.Definition, maxRules, maxTokens int) Selection {
	if !classDef.Actionable {
		return Selection{Skipped: true}
	}

	scored := make([]ScoredRule, 0, len(rules))
	for _, r := range rules {
		if s := Score(r, ctx, it, classDef); s > 0 {
			scored = append(scored, ScoredRule{Rule: r, Score: s})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Rule.Path < scored[j].Rule.Path
	})

	selected := make([]ScoredRule, 0, maxRules)
	tokens := 0
	for _, sr := range scored {
		if len(selected) >= maxRules {
			break
		}
		if tokens+sr.Rule.EstimatedTokens > maxTokens {
			continue
		}
		selected = append(selected, sr)
		tokens += sr.Rule.EstimatedTokens
	}

	return Selection{Rules: selected}
}
