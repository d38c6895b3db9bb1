package classifier

import (
	"fmt"
	"regexp"
)

// rawRule is a pattern-phase rule before compilation.
type rawRule struct {
	pattern  string
	excludes []string
}

// rawDefinition is a category definition before compilation.
type rawDefinition struct {
	class       Class
	actionable  bool
	boostTopics []string
	boost       int
	rules       []rawRule
	keywords    map[string]int
}

// rawRegistry lists every category in pattern-phase priority order: the
// narrowest, most distinctive domains first so that an ambiguous term
// ("policy", "review") resolves into the tighter category, and broad
// implementation requests last.
var rawRegistry = []rawDefinition{
	{
		class:      ClassLegalBusiness,
		actionable: false,
		rules: []rawRule{
			{
				pattern:  `\b(privacy policy|terms of service|terms and conditions|end.user license)\b`,
				excludes: []string{`\b(implement|build|code|api|endpoint|page|component)\b`},
			},
			{
				pattern: `\b(legal|contract|nda|non.disclosure|trademark|copyright notice|incorporat\w+|lawyer)\b`,
				excludes: []string{
					`\b(implement|code|function|api|endpoint|license header|spdx)\b`,
				},
			},
			{
				pattern:  `\b(business plan|pitch deck|investor|pricing model|market research)\b`,
				excludes: []string{`\b(implement|build|code|api)\b`},
			},
		},
		keywords: map[string]int{
			"legal": 2, "lawyer": 2, "compliance document": 2, "policy document": 2,
			"trademark": 2, "incorporation": 2,
		},
	},
	{
		class:       ClassSecurityAudit,
		actionable:  true,
		boostTopics: []string{"security", "authentication", "authorization", "encryption", "secrets"},
		boost:       30,
		rules: []rawRule{
			{pattern: `\b(security (audit|review|scan)|vulnerabilit\w+|penetration test|cve-\d+)\b`},
			{pattern: `\b(sql injection|xss|csrf|owasp|exploit\w*)\b`},
		},
		keywords: map[string]int{
			"security": 1, "vulnerability": 2, "audit": 1, "exploit": 2,
			"insecure": 2, "hardening": 2,
		},
	},
	{
		class:       ClassCodeDebugging,
		actionable:  true,
		boostTopics: []string{"debugging", "error-handling", "testing", "logging"},
		boost:       30,
		rules: []rawRule{
			{pattern: `\b(fix|debug|diagnose)\b.*\b(error|bug|issue|crash|failure|exception)\b`},
			{pattern: `\b(error|exception|bug|crash|broken|failing|stack ?trace)\b.*\b(fix|why|help|occur\w*|happen\w*)\b`},
			{pattern: `\b(not working|doesn.?t work|stopped working|keeps? (crashing|failing))\b`},
			{pattern: `\btraceback\b`},
		},
		keywords: map[string]int{
			"fix": 1, "bug": 2, "error": 1, "crash": 2, "debug": 2,
			"broken": 2, "exception": 2, "failing": 1,
		},
	},
	{
		class:       ClassCodeRefactoring,
		actionable:  true,
		boostTopics: []string{"code-quality", "maintainability", "patterns", "testing"},
		boost:       25,
		rules: []rawRule{
			{pattern: `\b(refactor\w*|clean ?up|restructure|simplif\w+|modulariz\w+)\b`},
			{pattern: `\b(technical debt|code smell|extract (a |the )?(function|method|class))\b`},
		},
		keywords: map[string]int{
			"refactor": 2, "cleanup": 2, "simplify": 1, "readable": 1,
			"maintainable": 2, "duplication": 2,
		},
	},
	{
		class:       ClassCodeReview,
		actionable:  true,
		boostTopics: []string{"code-quality", "style", "testing", "security"},
		boost:       25,
		rules: []rawRule{
			{
				pattern:  `\b(review (my|this|the) (code|pr|pull request|changes|diff)|code review)\b`,
				excludes: []string{`\b(performance review|review meeting)\b`},
			},
			{pattern: `\b(feedback on (my|this|the) (code|implementation|approach))\b`},
		},
		keywords: map[string]int{
			"review": 1, "pull request": 2, "feedback": 1, "critique": 2,
		},
	},
	{
		class:       ClassArchitectureDesign,
		actionable:  true,
		boostTopics: []string{"architecture", "design", "patterns", "scalability"},
		boost:       30,
		rules: []rawRule{
			{pattern: `\b(architect\w*|system design|design (a |the )?(system|service|schema|database))\b`},
			{pattern: `\b(microservices?|monolith|event.driven|scalab\w+|high availab\w+)\b`},
		},
		keywords: map[string]int{
			"architecture": 2, "design": 1, "scale": 1, "scalability": 2,
			"tradeoff": 2, "diagram": 1,
		},
	},
	{
		class:       ClassInfraDeployment,
		actionable:  true,
		boostTopics: []string{"deployment", "ci-cd", "infrastructure", "monitoring"},
		boost:       30,
		rules: []rawRule{
			{pattern: `\b(deploy\w*|ci/cd|continuous (integration|delivery|deployment)|pipeline)\b`},
			{pattern: `\b(kubernetes|k8s|docker\w*|terraform|cloudformation|helm)\b`},
			{pattern: `\b(provision\w*|infrastructure as code|iac)\b`},
		},
		keywords: map[string]int{
			"deploy": 2, "pipeline": 1, "docker": 2, "kubernetes": 2,
			"terraform": 2, "infrastructure": 2, "rollback": 2,
		},
	},
	{
		class:       ClassDocumentation,
		actionable:  true,
		boostTopics: []string{"documentation", "api"},
		boost:       25,
		rules: []rawRule{
			{pattern: `\b(write|update|generate|improve)\b.*\b(docs?|documentation|readme|changelog|docstrings?)\b`},
			{pattern: `\bdocument (this|the|my)\b`},
		},
		keywords: map[string]int{
			"documentation": 2, "readme": 2, "docstring": 2, "changelog": 2,
		},
	},
	{
		class:       ClassCodeImplementation,
		actionable:  true,
		boostTopics: []string{"api", "testing", "patterns", "error-handling"},
		boost:       25,
		rules: []rawRule{
			{pattern: `\b(implement|build|create|add|write)\b.*\b(feature|function|endpoint|api|service|class|module|component|test)\b`},
			{pattern: `\b(how (do|can|should) i (implement|build|write|add))\b`},
		},
		keywords: map[string]int{
			"implement": 2, "build": 1, "create": 1, "feature": 1,
			"endpoint": 2, "function": 1, "integrate": 2,
		},
	},
}

// buildDefinitions compiles the raw registry, rejecting malformed patterns
// at startup rather than at match time.
func buildDefinitions() ([]*Definition, error) {
	defs := make([]*Definition, 0, len(rawRegistry))
	for _, raw := range rawRegistry {
		def := &Definition{
			Class:       raw.class,
			Actionable:  raw.actionable,
			BoostTopics: raw.boostTopics,
			Boost:       raw.boost,
			keywords:    raw.keywords,
		}
		for _, rr := range raw.rules {
			re, err := regexp.Compile(rr.pattern)
			if err != nil {
				return nil, fmt.Errorf("category %s: bad pattern %q: %w", raw.class, rr.pattern, err)
			}
			rule := matchRule{pattern: re}
			for _, ex := range rr.excludes {
				exre, err := regexp.Compile(ex)
				if err != nil {
					return nil, fmt.Errorf("category %s: bad exclusion %q: %w", raw.class, ex, err)
				}
				rule.excludes = append(rule.excludes, exre)
			}
			def.patterns = append(def.patterns, rule)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
