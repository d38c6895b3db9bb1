package storage

import "time"

// RunRecord summarizes one pipeline run.
type RunRecord struct {
	// ID is a UUID for this run.
	ID string `json:"id"`

	// QueryHash is the SHA256 hash of the prompt, stored instead of the
	// prompt itself for privacy.
	QueryHash string `json:"query_hash"`

	// Class is the classified prompt category.
	Class string `json:"class"`

	// RuleCount is the number of rules selected.
	RuleCount int `json:"rule_count"`

	// TokensSelected is the summed token estimate of the selection.
	TokensSelected int `json:"tokens_selected"`

	// CacheHits and CacheMisses are the cache counter deltas for the run.
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`

	// DurationMs is the wall-clock duration of the run in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Skipped marks runs short-circuited by a non-actionable class.
	Skipped bool `json:"skipped"`

	// Timestamp is when the run completed.
	Timestamp time.Time `json:"timestamp"`
}

// SelectionEvent records one rule chosen during a run.
type SelectionEvent struct {
	// RunID links the event to its pipeline run.
	RunID string `json:"run_id"`

	// RulePath is the selected rule's catalog path.
	RulePath string `json:"rule_path"`

	// Score is the rule's computed relevance score.
	Score int `json:"score"`

	// Rank is the rule's position in the selection, starting at 0.
	Rank int `json:"rank"`

	// Timestamp is when the selection happened.
	Timestamp time.Time `json:"timestamp"`
}

// RuleCount is an aggregate selection count for one rule.
type RuleCount struct {
	RulePath string `json:"rule_path"`
	Count    int    `json:"count"`
}
