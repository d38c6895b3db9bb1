/*
Package engine orchestrates the full rule selection pipeline:

	prompt ─→ classifier ─→ class
	directory ─→ detector ─→ project context (cached per session)
	prompt ─→ intent
	(catalog, context, intent, class) ─→ scorer ─→ budgeted ranking
	ranking ─→ fetcher (cache-first) ─→ assembled, score-ordered output

The whole run operates under a hard wall-clock budget: when it expires,
whatever content has resolved is returned as a valid partial result.
Only configuration failures are fatal; per-rule fetch failures degrade
to omission.
*/
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PaulDuvall/rules-engine/internal/cache"
	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/classifier"
	"github.com/PaulDuvall/rules-engine/internal/clock"
	"github.com/PaulDuvall/rules-engine/internal/config"
	"github.com/PaulDuvall/rules-engine/internal/detector"
	"github.com/PaulDuvall/rules-engine/internal/fetcher"
	"github.com/PaulDuvall/rules-engine/internal/intent"
	"github.com/PaulDuvall/rules-engine/internal/scorer"
	"github.com/PaulDuvall/rules-engine/internal/storage"
)

// PipelineBudget is the hard wall-clock limit for one run. A degraded
// partial result beats a blocked caller.
const PipelineBudget = 3 * time.Second

// SelectedRule is one assembled output entry.
type SelectedRule struct {
	Rule    catalog.Rule `json:"rule"`
	Score   int          `json:"score"`
	Content []byte       `json:"content,omitempty"`
}

// Result is the output of one pipeline run. Skipped marks non-actionable
// prompts; Partial marks runs cut short by the wall-clock budget.
type Result struct {
	Class   classifier.Class `json:"class"`
	Rules   []SelectedRule   `json:"rules"`
	Skipped bool             `json:"skipped"`
	Partial bool             `json:"partial"`
}

// Engine wires the pipeline components together.
type Engine struct {
	catalog    *catalog.Catalog
	classifier *classifier.Classifier
	detector   *detector.Detector
	store      *cache.Store
	fetch      *fetcher.Fetcher
	recorder   *storage.Recorder
	opts       *config.Options
	clk        clock.Clock
	log        *zap.Logger

	ctxMu    sync.Mutex
	contexts map[string]*detector.Context
}

// New builds an engine from validated options, a loaded catalog, and a
// content source. recorder may be nil to disable analytics; clk and log
// default to the system clock and a no-op logger.
func New(cat *catalog.Catalog, opts *config.Options, source fetcher.Source, recorder *storage.Recorder, clk clock.Clock, log *zap.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}

	cls, err := classifier.New()
	if err != nil {
		return nil, err
	}

	var store *cache.Store
	if opts.CacheEnabled {
		store = cache.New(opts.CacheTTL(), cache.DefaultCapacity, clk)
	} else {
		store = cache.NewDisabled(clk)
	}

	return &Engine{
		catalog:    cat,
		classifier: cls,
		detector:   detector.New(),
		store:      store,
		fetch:      fetcher.New(source, store, opts.ConcurrencyLimit, clk, log),
		recorder:   recorder,
		opts:       opts,
		clk:        clk,
		log:        log,
		contexts:   make(map[string]*detector.Context),
	}, nil
}

// Cache exposes the content cache for stats reporting.
func (e *Engine) Cache() *cache.Store {
	return e.store
}

// Classifier exposes the compiled classifier registry.
func (e *Engine) Classifier() *classifier.Classifier {
	return e.classifier
}

// Context returns the detected project context for dir, computing it on
// first use and reusing the session-cached value afterwards.
func (e *Engine) Context(dir string) *detector.Context {
	e.ctxMu.Lock()
	defer e.ctxMu.Unlock()
	if ctx, ok := e.contexts[dir]; ok {
		return ctx
	}
	ctx := e.detector.Detect(dir)
	e.contexts[dir] = ctx
	return ctx
}

// InvalidateContext drops the cached context for dir.
func (e *Engine) InvalidateContext(dir string) {
	e.ctxMu.Lock()
	defer e.ctxMu.Unlock()
	delete(e.contexts, dir)
}

// Run executes the pipeline for one user turn.
func (e *Engine) Run(ctx context.Context, message, dir string) (*Result, error) {
	start := e.clk.Now()
	runCtx, cancel := context.WithTimeout(ctx, PipelineBudget)
	defer cancel()

	statsBefore := e.store.GetStats()

	cls := e.classifier.Classify(message)
	classDef := e.classifier.Definition(cls)

	if !classDef.Actionable {
		e.log.Debug("prompt not actionable, skipping selection",
			zap.String("class", string(cls)))
		res := &Result{Class: cls, Skipped: true}
		e.record(message, res, 0, statsBefore, start)
		return res, nil
	}

	projCtx := e.Context(dir)
	it := intent.Derive(message)

	selection := scorer.Select(e.catalog.Rules(), projCtx, it, classDef,
		e.opts.MaxRules, e.opts.MaxTokens)

	rules := make([]catalog.Rule, len(selection.Rules))
	for i, sr := range selection.Rules {
		rules[i] = sr.Rule
	}

	fetched := e.fetch.FetchAll(runCtx, rules)

	res := &Result{Class: cls}
	for i, sr := range selection.Rules {
		if !fetched[i].Found {
			continue
		}
		res.Rules = append(res.Rules, SelectedRule{
			Rule:    sr.Rule,
			Score:   sr.Score,
			Content: fetched[i].Content,
		})
	}
	if runCtx.Err() != nil && len(res.Rules) < len(selection.Rules) {
		res.Partial = true
		e.log.Warn("pipeline budget exceeded, returning partial result",
			zap.Int("selected", len(selection.Rules)),
			zap.Int("resolved", len(res.Rules)))
	}

	e.record(message, res, selection.TotalTokens(), statsBefore, start)
	return res, nil
}

// record queues analytics for one run, when a recorder is attached.
func (e *Engine) record(message string, res *Result, tokens int, before cache.Stats, start time.Time) {
	if e.recorder == nil {
		return
	}

	after := e.store.GetStats()
	now := e.clk.Now()
	run := storage.RunRecord{
		ID:             uuid.NewString(),
		QueryHash:      storage.HashQuery(message),
		Class:          string(res.Class),
		RuleCount:      len(res.Rules),
		TokensSelected: tokens,
		CacheHits:      after.Hits - before.Hits,
		CacheMisses:    after.Misses - before.Misses,
		DurationMs:     now.Sub(start).Milliseconds(),
		Skipped:        res.Skipped,
		Timestamp:      now,
	}

	events := make([]storage.SelectionEvent, len(res.Rules))
	for i, sr := range res.Rules {
		events[i] = storage.SelectionEvent{
			RunID:     run.ID,
			RulePath:  sr.Rule.Path,
			Score:     sr.Score,
			Rank:      i,
			Timestamp: now,
		}
	}

	e.recorder.Record(run, events)
}
