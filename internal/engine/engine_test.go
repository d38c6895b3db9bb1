package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
	"github.com/PaulDuvall/rules-engine/internal/classifier"
	"github.com/PaulDuvall/rules-engine/internal/clock"
	"github.com/PaulDuvall/rules-engine/internal/config"
	"github.com/PaulDuvall/rules-engine/internal/fetcher"
)

// mapSource serves rule content from an in-memory map and counts fetches.
type mapSource struct {
	docs  map[string]string
	calls map[string]int
}

func newMapSource(docs map[string]string) *mapSource {
	return &mapSource{docs: docs, calls: make(map[string]int)}
}

func (m *mapSource) Fetch(_ context.Context, path string) ([]byte, error) {
	m.calls[path]++
	content, ok := m.docs[path]
	if !ok {
		return nil, &fetcher.NotFoundError{Path: path}
	}
	return []byte(content), nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Rule{
		{
			Path:            "base/core.md",
			Title:           "Core conventions",
			Category:        catalog.CategoryBase,
			EstimatedTokens: 200,
		},
		{
			Path:            "languages/python.md",
			Title:           "Python rules",
			Category:        catalog.CategoryLanguage,
			Language:        "python",
			EstimatedTokens: 400,
		},
		{
			Path:            "frameworks/fastapi.md",
			Title:           "FastAPI rules",
			Category:        catalog.CategoryFramework,
			Framework:       "fastapi",
			Language:        "python",
			EstimatedTokens: 500,
		},
		{
			Path:            "languages/rust.md",
			Title:           "Rust rules",
			Category:        catalog.CategoryLanguage,
			Language:        "rust",
			Maturity:        []catalog.Maturity{catalog.MaturityProduction},
			EstimatedTokens: 300,
		},
	})
	require.NoError(t, err)
	return cat
}

func pythonProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("fastapi==0.100.0\n"), 0644)
	require.NoError(t, err)
	return dir
}

func testOptions() *config.Options {
	opts := config.Default()
	opts.ContentSource = "acme/rules"
	return opts
}

func newTestEngine(t *testing.T, src fetcher.Source, opts *config.Options) *Engine {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e, err := New(testCatalog(t), opts, src, nil, clk, nil)
	require.NoError(t, err)
	return e
}

func TestRun_EndToEnd(t *testing.T) {
	src := newMapSource(map[string]string{
		"base/core.md":          "# Core",
		"languages/python.md":   "# Python",
		"frameworks/fastapi.md": "# FastAPI",
		"languages/rust.md":     "# Rust",
	})
	e := newTestEngine(t, src, testOptions())
	dir := pythonProject(t)

	res, err := e.Run(context.Background(), "Implement a new endpoint for user signup", dir)
	require.NoError(t, err)

	assert.Equal(t, classifier.ClassCodeImplementation, res.Class)
	assert.False(t, res.Skipped)
	assert.False(t, res.Partial)

	require.NotEmpty(t, res.Rules)
	paths := make([]string, len(res.Rules))
	for i, r := range res.Rules {
		paths[i] = r.Rule.Path
	}
	assert.Contains(t, paths, "languages/python.md")
	assert.Contains(t, paths, "base/core.md")
	assert.NotContains(t, paths, "languages/rust.md", "mismatched language must not be selected")

	// Output is score-ordered: the python rule outranks the base rule.
	for i := 1; i < len(res.Rules); i++ {
		assert.GreaterOrEqual(t, res.Rules[i-1].Score, res.Rules[i].Score)
	}
	for _, r := range res.Rules {
		assert.NotEmpty(t, r.Content, "every returned rule carries its content")
	}
}

func TestRun_NonActionableSkips(t *testing.T) {
	src := newMapSource(nil)
	e := newTestEngine(t, src, testOptions())

	res, err := e.Run(context.Background(), "Draft our privacy policy for the website", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, classifier.ClassLegalBusiness, res.Class)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Rules)
	assert.Empty(t, src.calls, "a skipped run must not fetch anything")
}

func TestRun_UnclearSkips(t *testing.T) {
	src := newMapSource(nil)
	e := newTestEngine(t, src, testOptions())

	res, err := e.Run(context.Background(), "hello there", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, classifier.ClassUnclear, res.Class)
	assert.True(t, res.Skipped)
}

func TestRun_MissingContentOmitted(t *testing.T) {
	src := newMapSource(map[string]string{
		"languages/python.md": "# Python",
		// base/core.md deliberately absent upstream
	})
	e := newTestEngine(t, src, testOptions())
	dir := pythonProject(t)

	res, err := e.Run(context.Background(), "Implement a helper function for parsing", dir)
	require.NoError(t, err)

	for _, r := range res.Rules {
		assert.NotEqual(t, "base/core.md", r.Rule.Path, "absent documents are omitted, not errors")
	}
	paths := make([]string, len(res.Rules))
	for i, r := range res.Rules {
		paths[i] = r.Rule.Path
	}
	assert.Contains(t, paths, "languages/python.md")
}

func TestRun_SecondRunHitsCache(t *testing.T) {
	src := newMapSource(map[string]string{
		"base/core.md":          "# Core",
		"languages/python.md":   "# Python",
		"frameworks/fastapi.md": "# FastAPI",
	})
	e := newTestEngine(t, src, testOptions())
	dir := pythonProject(t)

	_, err := e.Run(context.Background(), "Implement a new endpoint", dir)
	require.NoError(t, err)
	firstCalls := len(src.calls)
	for p, n := range src.calls {
		assert.Equal(t, 1, n, "path %s fetched more than once on first run", p)
	}

	_, err = e.Run(context.Background(), "Implement a new endpoint", dir)
	require.NoError(t, err)

	assert.Equal(t, firstCalls, len(src.calls), "second run must be served from cache")
	for p, n := range src.calls {
		assert.Equal(t, 1, n, "path %s refetched despite fresh cache", p)
	}
}

func TestRun_TokenBudgetRespected(t *testing.T) {
	src := newMapSource(map[string]string{
		"base/core.md":          "# Core",
		"languages/python.md":   "# Python",
		"frameworks/fastapi.md": "# FastAPI",
	})
	opts := testOptions()
	opts.MaxTokens = 600
	e := newTestEngine(t, src, opts)
	dir := pythonProject(t)

	res, err := e.Run(context.Background(), "Implement a new endpoint", dir)
	require.NoError(t, err)

	total := 0
	for _, r := range res.Rules {
		total += r.Rule.EstimatedTokens
	}
	assert.LessOrEqual(t, total, 600)
	require.NotEmpty(t, res.Rules, "budget walk should still fit smaller rules")
}

func TestRun_MaxRulesRespected(t *testing.T) {
	src := newMapSource(map[string]string{
		"base/core.md":          "# Core",
		"languages/python.md":   "# Python",
		"frameworks/fastapi.md": "# FastAPI",
	})
	opts := testOptions()
	opts.MaxRules = 1
	e := newTestEngine(t, src, opts)

	res, err := e.Run(context.Background(), "Implement a new endpoint", pythonProject(t))
	require.NoError(t, err)

	assert.LessOrEqual(t, len(res.Rules), 1)
}

// stallSource serves some paths immediately and blocks on the rest until
// the request context expires.
type stallSource struct {
	fast map[string]string
}

func (s *stallSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if content, ok := s.fast[path]; ok {
		return []byte(content), nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRun_DeadlineYieldsPartialResult(t *testing.T) {
	src := &stallSource{fast: map[string]string{
		"languages/python.md":   "# Python",
		"frameworks/fastapi.md": "# FastAPI",
		// base/core.md stalls until the deadline
	}}
	e := newTestEngine(t, src, testOptions())
	dir := pythonProject(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := e.Run(ctx, "Implement a new endpoint", dir)
	require.NoError(t, err, "an expired budget degrades, it does not fail")

	assert.True(t, res.Partial, "unresolved items past the deadline mark the result partial")
	require.NotEmpty(t, res.Rules, "resolved rules survive the deadline")
	paths := make([]string, len(res.Rules))
	for i, r := range res.Rules {
		paths[i] = r.Rule.Path
	}
	assert.Contains(t, paths, "languages/python.md")
	assert.NotContains(t, paths, "base/core.md")
}

func TestContext_CachedPerSession(t *testing.T) {
	e := newTestEngine(t, newMapSource(nil), testOptions())
	dir := pythonProject(t)

	first := e.Context(dir)
	assert.Same(t, first, e.Context(dir), "context is computed once per directory")

	e.InvalidateContext(dir)
	assert.NotSame(t, first, e.Context(dir), "invalidation forces recomputation")
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := config.Default() // no ContentSource
	_, err := New(testCatalog(t), opts, newMapSource(nil), nil, nil, nil)
	require.Error(t, err)

	var verr *config.ValidationError
	assert.ErrorAs(t, err, &verr)
}
