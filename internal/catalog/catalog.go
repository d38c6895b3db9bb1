/*
Package catalog defines the static rule catalog: metadata descriptors for
every reference document the engine can select from.

The catalog is loaded once at startup from a YAML file and is immutable
afterwards. Entries are validated on load so that malformed categories,
maturity values, or token estimates fail fast instead of surfacing as
silent scoring bugs later.
*/
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Category is the kind of guidance a rule document provides.
type Category string

const (
	// CategoryBase rules apply to every project regardless of stack.
	CategoryBase Category = "base"
	// CategoryLanguage rules apply to a specific programming language.
	CategoryLanguage Category = "language"
	// CategoryFramework rules apply to a specific framework.
	CategoryFramework Category = "framework"
	// CategoryCloud rules apply to a specific cloud provider.
	CategoryCloud Category = "cloud"
)

// Maturity describes the project lifecycle stage a rule targets.
type Maturity string

const (
	MaturityMVP           Maturity = "mvp"
	MaturityPreProduction Maturity = "pre-production"
	MaturityProduction    Maturity = "production"
)

// validCategories and validMaturities are the accepted enum values.
var validCategories = map[Category]bool{
	CategoryBase:      true,
	CategoryLanguage:  true,
	CategoryFramework: true,
	CategoryCloud:     true,
}

var validMaturities = map[Maturity]bool{
	MaturityMVP:           true,
	MaturityPreProduction: true,
	MaturityProduction:    true,
}

// Rule is an immutable catalog entry describing one rule document.
// Path doubles as the unique key and the remote document location.
type Rule struct {
	Path            string     `yaml:"path" json:"path"`
	Title           string     `yaml:"title" json:"title"`
	Category        Category   `yaml:"category" json:"category"`
	Language        string     `yaml:"language,omitempty" json:"language,omitempty"`
	Framework       string     `yaml:"framework,omitempty" json:"framework,omitempty"`
	CloudProvider   string     `yaml:"cloudProvider,omitempty" json:"cloudProvider,omitempty"`
	Topics          []string   `yaml:"topics,omitempty" json:"topics,omitempty"`
	Maturity        []Maturity `yaml:"maturity,omitempty" json:"maturity,omitempty"`
	EstimatedTokens int        `yaml:"estimatedTokens" json:"estimatedTokens"`
}

// HasTopic reports whether the rule covers the given topic.
func (r *Rule) HasTopic(topic string) bool {
	for _, t := range r.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// allMaturities is the default for entries that omit maturity: a rule
// that does not restrict itself applies at every stage.
var allMaturities = []Maturity{MaturityMVP, MaturityPreProduction, MaturityProduction}

// MatchesMaturity reports whether the rule targets the given maturity stage.
// Entries loaded through New always carry at least one stage; a bare Rule
// with an empty set matches nothing.
func (r *Rule) MatchesMaturity(m Maturity) bool {
	for _, rm := range r.Maturity {
		if rm == m {
			return true
		}
	}
	return false
}

// EntryError describes a single malformed catalog entry.
type EntryError struct {
	Path    string // entry path, or "" when the path itself is missing
	Index   int    // zero-based position in the catalog file
	Message string
}

func (e *EntryError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("catalog entry #%d: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("catalog entry %q: %s", e.Path, e.Message)
}

// Catalog is the validated, immutable set of rule descriptors.
type Catalog struct {
	rules  []Rule
	byPath map[string]int
}

// Load reads and validates a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML bytes.
//
// The file is a list of entries:
//
//	- path: docs/python/style.md
//	  title: Python Style
//	  category: language
//	  language: python
//	  topics: [style, linting]
//	  maturity: [mvp, production]
//	  estimatedTokens: 800
func Parse(data []byte) (*Catalog, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(rules)
}

// New validates a slice of rules and builds a catalog from them.
// The input slice is copied; callers cannot mutate the catalog afterwards.
func New(rules []Rule) (*Catalog, error) {
	c := &Catalog{
		rules:  make([]Rule, len(rules)),
		byPath: make(map[string]int, len(rules)),
	}
	copy(c.rules, rules)

	for i := range c.rules {
		r := &c.rules[i]
		if err := validateRule(r, i); err != nil {
			return nil, err
		}
		if _, dup := c.byPath[r.Path]; dup {
			return nil, &EntryError{Path: r.Path, Index: i, Message: "duplicate path"}
		}
		// Normalize topic order so downstream scoring and output are
		// independent of authoring order.
		sort.Strings(r.Topics)
		// An omitted maturity set means the rule applies at every stage.
		if len(r.Maturity) == 0 {
			r.Maturity = append([]Maturity(nil), allMaturities...)
		}
		c.byPath[r.Path] = i
	}

	return c, nil
}

// validateRule rejects malformed entries at load time.
func validateRule(r *Rule, index int) error {
	if r.Path == "" {
		return &EntryError{Index: index, Message: "missing path"}
	}
	if r.Title == "" {
		return &EntryError{Path: r.Path, Index: index, Message: "missing title"}
	}
	if !validCategories[r.Category] {
		return &EntryError{Path: r.Path, Index: index, Message: fmt.Sprintf("unknown category %q", r.Category)}
	}
	for _, m := range r.Maturity {
		if !validMaturities[m] {
			return &EntryError{Path: r.Path, Index: index, Message: fmt.Sprintf("unknown maturity %q", m)}
		}
	}
	if r.EstimatedTokens < 0 {
		return &EntryError{Path: r.Path, Index: index, Message: "negative estimatedTokens"}
	}
	switch r.Category {
	case CategoryLanguage:
		if r.Language == "" {
			return &EntryError{Path: r.Path, Index: index, Message: "language category requires a language"}
		}
	case CategoryFramework:
		if r.Framework == "" {
			return &EntryError{Path: r.Path, Index: index, Message: "framework category requires a framework"}
		}
	case CategoryCloud:
		if r.CloudProvider == "" {
			return &EntryError{Path: r.Path, Index: index, Message: "cloud category requires a cloudProvider"}
		}
	}
	return nil
}

// Rules returns the descriptors in catalog order.
// The returned slice must not be modified.
func (c *Catalog) Rules() []Rule {
	return c.rules
}

// Get returns the descriptor for a path, if present.
func (c *Catalog) Get(path string) (Rule, bool) {
	i, ok := c.byPath[path]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// TotalTokens returns the summed token estimate of every entry.
func (c *Catalog) TotalTokens() int {
	total := 0
	for i := range c.rules {
		total += c.rules[i].EstimatedTokens
	}
	return total
}
