package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PaulDuvall/rules-engine/internal/clock"
)

func newTestStore(ttl time.Duration, capacity int) (*Store, *clock.Fake) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(ttl, capacity, clk), clk
}

func TestGetSetRoundTrip(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)

	if _, ok := s.Get("rules/a.md"); ok {
		t.Fatal("empty store must miss")
	}
	s.Set("rules/a.md", []byte("content"))

	got, ok := s.Get("rules/a.md")
	if !ok || string(got) != "content" {
		t.Fatalf("Get = %q, %v; want content, true", got, ok)
	}

	stats := s.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, size 1", stats)
	}
}

func TestTTLExpiry(t *testing.T) {
	s, clk := newTestStore(time.Hour, 8)
	s.Set("k", []byte("v"))

	clk.Advance(59 * time.Minute)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clk.Advance(2 * time.Minute)
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry survived past its TTL")
	}
	// Get on an expired entry removes it.
	if _, ok := s.GetStale("k"); ok {
		t.Fatal("expired entry should have been removed by Get")
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	s, clk := newTestStore(time.Hour, 8)
	s.Set("k", []byte("old"))

	clk.Advance(50 * time.Minute)
	s.Set("k", []byte("new"))

	clk.Advance(30 * time.Minute)
	got, ok := s.Get("k")
	if !ok || string(got) != "new" {
		t.Fatalf("Get = %q, %v; want refreshed entry", got, ok)
	}
}

func TestLRUEviction(t *testing.T) {
	s, _ := newTestStore(time.Hour, 2)

	s.Set("a", []byte("1"))
	s.Set("b", []byte("2"))
	// Touch a so b becomes least recently used.
	if _, ok := s.Get("a"); !ok {
		t.Fatal("expected a")
	}
	s.Set("c", []byte("3"))

	if s.Has("b") {
		t.Error("b should have been evicted as least recently used")
	}
	if !s.Has("a") || !s.Has("c") {
		t.Error("a and c should survive eviction")
	}
}

func TestGetStaleServesExpired(t *testing.T) {
	s, clk := newTestStore(time.Hour, 8)
	s.Set("k", []byte("v"))
	clk.Advance(2 * time.Hour)

	got, ok := s.GetStale("k")
	if !ok || string(got) != "v" {
		t.Fatalf("GetStale = %q, %v; want stale content", got, ok)
	}
}

func TestClearAndDelete(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)
	s.Set("a", []byte("1"))
	s.Set("b", []byte("2"))

	s.Delete("a")
	if s.Has("a") {
		t.Error("a should be deleted")
	}

	s.Clear()
	if stats := s.GetStats(); stats.Size != 0 {
		t.Errorf("size after Clear = %d, want 0", stats.Size)
	}
}

func TestFillCachesResult(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)
	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := s.Fill("k", fn)
		if err != nil {
			t.Fatalf("Fill: %v", err)
		}
		if string(got) != "fetched" {
			t.Fatalf("Fill = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("fill fn ran %d times, want 1", calls)
	}
}

func TestFillCountsOneMissPerLookup(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)

	_, err := s.Fill("k", func() ([]byte, error) { return []byte("v"), nil })
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if stats := s.GetStats(); stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("cold fill stats = %+v, want exactly 1 miss", stats)
	}

	if _, err := s.Fill("k", func() ([]byte, error) { return nil, errors.New("unexpected refetch") }); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if stats := s.GetStats(); stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("warm fill stats = %+v, want 1 miss and 1 hit", stats)
	}
}

func TestFillPropagatesError(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)
	wantErr := errors.New("remote gone")

	_, err := s.Fill("k", func() ([]byte, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Fill err = %v, want %v", err, wantErr)
	}
	if s.Has("k") {
		t.Error("failed fill must not populate the cache")
	}
}

func TestFillCoalescesConcurrentCalls(t *testing.T) {
	s, _ := newTestStore(time.Hour, 8)

	var calls atomic.Int64
	release := make(chan struct{})
	fn := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	const workers = 16
	var wg sync.WaitGroup
	started := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			got, err := s.Fill("k", fn)
			if err != nil || string(got) != "v" {
				t.Errorf("Fill = %q, %v", got, err)
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-started
	}
	close(release)
	wg.Wait()

	// Goroutines that miss before the first fill completes share its
	// flight; later ones hit the cache. Either way the fn must not run
	// once per caller.
	if n := calls.Load(); n >= workers {
		t.Errorf("fill fn ran %d times for %d callers", n, workers)
	}
}

func TestDisabledStore(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewDisabled(clk)

	s.Set("k", []byte("v"))
	if _, ok := s.Get("k"); ok {
		t.Fatal("disabled store must never hit")
	}
	if stats := s.GetStats(); stats.Size != 0 {
		t.Errorf("disabled store size = %d, want 0", stats.Size)
	}

	calls := 0
	for i := 0; i < 2; i++ {
		got, err := s.Fill("k", func() ([]byte, error) {
			calls++
			return []byte("v"), nil
		})
		if err != nil || string(got) != "v" {
			t.Fatalf("Fill = %q, %v", got, err)
		}
	}
	if calls != 2 {
		t.Errorf("disabled store ran fill %d times, want one per call", calls)
	}
}

func TestDefaultsApplied(t *testing.T) {
	s := New(0, 0, nil)
	if s.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultTTL)
	}
	if s.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", s.capacity, DefaultCapacity)
	}
}
