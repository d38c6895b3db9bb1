/*
Package classifier maps free-text user prompts to a semantic category.

Classification runs in two phases:

 1. Pattern phase: categories are tried in a fixed priority order, narrow
    domains before broad ones. Each category owns regex match rules with
    exclusion patterns (Go's regexp has no negative lookahead, so an
    exclusion list stands in for it). The first category with any rule
    matching wins.
 2. Keyword phase: only when no pattern matched. Each category's keyword
    weights are summed over the lowercased input; the result is accepted
    only when the top score reaches the minimum threshold and strictly
    beats every other category.

Anything else is ClassUnclear. Classification is a pure function of the
input text.
*/
package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// Class is the semantic category assigned to a user prompt.
type Class string

const (
	ClassUnclear            Class = "UNCLEAR"
	ClassLegalBusiness      Class = "LEGAL_BUSINESS"
	ClassSecurityAudit      Class = "SECURITY_AUDIT"
	ClassCodeDebugging      Class = "CODE_DEBUGGING"
	ClassCodeRefactoring    Class = "CODE_REFACTORING"
	ClassCodeReview         Class = "CODE_REVIEW"
	ClassArchitectureDesign Class = "ARCHITECTURE_DESIGN"
	ClassInfraDeployment    Class = "INFRA_DEPLOYMENT"
	ClassDocumentation      Class = "DOCUMENTATION"
	ClassCodeImplementation Class = "CODE_IMPLEMENTATION"
)

// minKeywordScore is the minimum keyword total required to accept a
// keyword-phase result. Inherited from the original heuristic; test
// fixtures depend on it, so it is preserved as-is.
const minKeywordScore = 2

// Definition describes one category's matching rules and scoring metadata.
type Definition struct {
	Class Class

	// Actionable categories continue the selection pipeline; non-actionable
	// ones short-circuit it.
	Actionable bool

	// BoostTopics and Boost feed the scorer: rules whose topics intersect
	// BoostTopics receive Boost extra points when this class is active.
	BoostTopics []string
	Boost       int

	patterns []matchRule
	keywords map[string]int
}

// matchRule is one pattern-phase rule: the rule matches when Pattern
// matches and none of the Excludes do.
type matchRule struct {
	pattern  *regexp.Regexp
	excludes []*regexp.Regexp
}

// Classifier holds the compiled category registry.
type Classifier struct {
	// order is the pattern-phase priority: most distinctive first.
	order []*Definition
	byCls map[Class]*Definition
}

// New compiles and validates the built-in category registry.
func New() (*Classifier, error) {
	defs, err := buildDefinitions()
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		order: defs,
		byCls: make(map[Class]*Definition, len(defs)),
	}
	for _, d := range defs {
		if _, dup := c.byCls[d.Class]; dup {
			return nil, fmt.Errorf("duplicate category definition: %s", d.Class)
		}
		if d.Actionable && d.Boost > 0 && len(d.BoostTopics) == 0 {
			return nil, fmt.Errorf("category %s: boost without boost topics", d.Class)
		}
		for kw, w := range d.keywords {
			if kw == "" || w <= 0 {
				return nil, fmt.Errorf("category %s: invalid keyword entry %q=%d", d.Class, kw, w)
			}
		}
		c.byCls[d.Class] = d
	}
	return c, nil
}

// Classify assigns a category to the given prompt text.
func (c *Classifier) Classify(text string) Class {
	if strings.TrimSpace(text) == "" {
		return ClassUnclear
	}
	lower := strings.ToLower(text)

	// Phase 1: priority-ordered pattern match.
	for _, def := range c.order {
		for _, rule := range def.patterns {
			if !rule.pattern.MatchString(lower) {
				continue
			}
			excluded := false
			for _, ex := range rule.excludes {
				if ex.MatchString(lower) {
					excluded = true
					break
				}
			}
			if !excluded {
				return def.Class
			}
		}
	}

	// Phase 2: keyword-weight scoring.
	best := ClassUnclear
	bestScore := 0
	tied := false
	for _, def := range c.order {
		score := 0
		for kw, w := range def.keywords {
			if strings.Contains(lower, kw) {
				score += w
			}
		}
		if score > bestScore {
			best, bestScore, tied = def.Class, score, false
		} else if score == bestScore && score > 0 {
			tied = true
		}
	}
	if bestScore < minKeywordScore || tied {
		return ClassUnclear
	}
	return best
}

// Definition returns the registry entry for a class. ClassUnclear and
// unknown classes return a non-actionable zero definition.
func (c *Classifier) Definition(cls Class) Definition {
	if d, ok := c.byCls[cls]; ok {
		return *d
	}
	return Definition{Class: cls}
}

// Actionable reports whether a class should continue the pipeline.
func (c *Classifier) Actionable(cls Class) bool {
	d, ok := c.byCls[cls]
	return ok && d.Actionable
}
