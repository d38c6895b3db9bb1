/*
Package fetcher retrieves rule document content for a selected descriptor
set with bounded parallelism, retry with exponential backoff, and a
stale-cache fallback.

Each item runs an independent state machine:

	Pending → cache hit → Done(cached)
	        → cache miss → Fetching → Done(content)
	                     → transient failure → Retry (1s, 2s, 4s) → Fetching
	                     → not found → Done(absent), never retried
	retries exhausted → stale cache value if any, else Done(absent)

One item's failure never aborts its siblings, and at most concurrency
remote reads are in flight at once (a weighted semaphore guards the slot
pool). Coalescing in the cache layer guarantees a single fill per key.
Output order mirrors input order; ranking is the scorer's concern.
*/
package fetcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/PaulDuvall/rules-engine/internal/cache"
	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/clock"
)

const (
	// DefaultConcurrency bounds simultaneous remote reads.
	DefaultConcurrency = 5

	// requestTimeout is the per-request deadline for one remote read.
	requestTimeout = 5 * time.Second

	// maxRetries is the number of backoff retries after the first attempt.
	maxRetries = 3

	// baseBackoff is the first retry delay; each retry doubles it.
	baseBackoff = 1 * time.Second
)

// Result is the outcome for one requested rule. Found is false when the
// document is permanently missing or every retrieval avenue failed.
type Result struct {
	Rule    catalog.Rule
	Content []byte
	Found   bool
}

// Fetcher fetches rule content cache-first with bounded parallelism.
type Fetcher struct {
	source Source
	store  *cache.Store
	sem    *semaphore.Weighted
	clk    clock.Clock
	log    *zap.Logger
}

// New creates a Fetcher. A non-positive concurrency falls back to the
// default; nil clk and log fall back to the system clock and a no-op
// logger.
func New(source Source, store *cache.Store, concurrency int, clk clock.Clock, log *zap.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		source: source,
		store:  store,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		clk:    clk,
		log:    log,
	}
}

// FetchAll retrieves content for every rule. Results are positionally
// aligned with the input. The context carries the pipeline's wall-clock
// budget: once it expires, unfinished items resolve as absent rather
// than blocking.
func (f *Fetcher) FetchAll(ctx context.Context, rules []catalog.Rule) []Result {
	results := make([]Result, len(rules))

	var wg sync.WaitGroup
	for i, rule := range rules {
		wg.Add(1)
		go func(i int, rule catalog.Rule) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, rule)
		}(i, rule)
	}
	wg.Wait()

	return results
}

// fetchOne drives the per-item state machine.
func (f *Fetcher) fetchOne(ctx context.Context, rule catalog.Rule) Result {
	res := Result{Rule: rule}

	content, err := f.store.Fill(rule.Path, func() ([]byte, error) {
		return f.fetchRemote(ctx, rule.Path)
	})
	if err == nil {
		res.Content = content
		res.Found = true
		return res
	}

	if IsNotFound(err) {
		f.log.Debug("rule content not found", zap.String("path", rule.Path))
		return res
	}

	// Retries exhausted or budget expired: degrade to a stale copy when
	// one exists.
	if stale, ok := f.store.GetStale(rule.Path); ok {
		f.log.Warn("fetch failed, serving stale cached content",
			zap.String("path", rule.Path), zap.Error(err))
		res.Content = stale
		res.Found = true
		return res
	}

	f.log.Warn("fetch failed with no cached fallback, omitting rule",
		zap.String("path", rule.Path), zap.Error(err))
	return res
}

// fetchRemote performs the Fetching/Retry loop for one document. It is
// invoked at most once per key at a time (cache fill coalescing) and
// holds a semaphore slot for the whole attempt sequence, backoff sleeps
// included, so a flapping endpoint cannot oversubscribe the slot pool.
func (f *Fetcher) fetchRemote(ctx context.Context, path string) ([]byte, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, &TransientError{Path: path, Err: err}
	}
	defer f.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseBackoff << (attempt - 1)
			if err := f.clk.Sleep(ctx, delay); err != nil {
				return nil, &TransientError{Path: path, Err: err}
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		content, err := f.source.Fetch(reqCtx, path)
		cancel()

		if err == nil {
			return content, nil
		}
		if IsNotFound(err) {
			return nil, err
		}
		if !IsTransient(err) {
			// Unexpected permanent failure; do not burn retries on it.
			return nil, err
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
		f.log.Debug("transient fetch failure, will retry",
			zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}
