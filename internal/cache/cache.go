/*
Package cache implements the process-lifetime content cache: TTL expiry
plus least-recently-used eviction at a fixed capacity, with O(1) touch
and evict (hash map over a recency-ordered list).

Concurrent fills for the same key coalesce through a singleflight group:
a second request for an absent key waits on the first fill instead of
issuing a duplicate remote read.
*/
package cache

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/PaulDuvall/rules-engine/internal/clock"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 3600 * time.Second

// DefaultCapacity is the default maximum entry count before LRU eviction.
const DefaultCapacity = 128

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// entry is one cached value plus its fetch timestamp.
type entry struct {
	key       string
	content   []byte
	fetchedAt time.Time
}

// Store is a concurrency-safe TTL + LRU content cache.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	disabled bool
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	hits     uint64
	misses   uint64
	clk      clock.Clock

	fills singleflight.Group
}

// New creates a Store. Non-positive ttl or capacity fall back to the
// defaults; a nil clk uses the system clock.
func New(ttl time.Duration, capacity int, clk clock.Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Store{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		clk:      clk,
	}
}

// NewDisabled creates a Store that never retains content: every read is
// a miss and writes are dropped. Fill still coalesces concurrent calls
// for the same key, so the one-fill-per-key invariant holds with caching
// switched off.
func NewDisabled(clk clock.Clock) *Store {
	s := New(0, 0, clk)
	s.disabled = true
	return s
}

// Get returns the fresh cached content for key. An expired entry is
// removed and reported as a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		s.misses++
		return nil, false
	}

	el, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if s.expired(e) {
		s.removeLocked(el)
		s.misses++
		return nil, false
	}
	s.order.MoveToFront(el)
	s.hits++
	return e.content, true
}

// getFresh is Fill's lookup: like Get, but an expired entry is left in
// place so it can still serve as the stale fallback if the refetch fails.
func (s *Store) getFresh(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		s.misses++
		return nil, false
	}

	el, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if s.expired(e) {
		s.misses++
		return nil, false
	}
	s.order.MoveToFront(el)
	s.hits++
	return e.content, true
}

// peekFresh is the in-flight re-check inside Fill: like getFresh but
// without bumping hit/miss counters, so one logical Fill lookup counts
// exactly once in the stats.
func (s *Store) peekFresh(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil, false
	}

	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if s.expired(e) {
		return nil, false
	}
	s.order.MoveToFront(el)
	return e.content, true
}

// GetStale returns cached content for key even when the TTL has lapsed.
// Used as the degraded fallback after fetch retries exhaust. Stale reads
// do not touch recency or hit counters.
func (s *Store) GetStale(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).content, true
}

// Set stores content under key, evicting the least recently used entry
// if the store is at capacity.
func (s *Store) Set(key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return
	}

	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.content = content
		e.fetchedAt = s.clk.Now()
		s.order.MoveToFront(el)
		return
	}

	for len(s.items) >= s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest)
	}

	e := &entry{key: key, content: content, fetchedAt: s.clk.Now()}
	s.items[key] = s.order.PushFront(e)
}

// Has reports whether a fresh entry exists for key without touching
// recency or counters.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return false
	}
	return !s.expired(el.Value.(*entry))
}

// Delete removes an entry, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.removeLocked(el)
	}
}

// Clear removes every entry. Counters are preserved.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*list.Element)
	s.order.Init()
}

// GetStats returns a snapshot of cache counters.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Hits: s.hits, Misses: s.misses, Size: len(s.items)}
}

// Fill returns the fresh cached content for key, or runs fn to produce it.
// Concurrent Fill calls for the same key share a single fn invocation; a
// successful result is stored before the waiters are released, so an
// eviction racing with the fill cannot drop the value the waiters see.
func (s *Store) Fill(key string, fn func() ([]byte, error)) ([]byte, error) {
	if content, ok := s.getFresh(key); ok {
		return content, nil
	}

	v, err, _ := s.fills.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have completed a
		// fill between our miss and this point. The miss was already
		// counted above, so this lookup stays off the counters.
		if content, ok := s.peekFresh(key); ok {
			return content, nil
		}
		content, err := fn()
		if err != nil {
			return nil, err
		}
		s.Set(key, content)
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// expired reports whether e is past its TTL. Callers hold s.mu.
func (s *Store) expired(e *entry) bool {
	return s.clk.Now().Sub(e.fetchedAt) >= s.ttl
}

// removeLocked unlinks an element from both indexes. Callers hold s.mu.
func (s *Store) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.items, e.key)
}
