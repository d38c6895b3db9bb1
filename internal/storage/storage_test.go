package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

var errDisabled = errors.New("storage unavailable")

func writeEmptyFile(path string) error {
	return os.WriteFile(path, nil, 0644)
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewStoreAt(filepath.Join(t.TempDir(), "history.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(ts time.Time) RunRecord {
	return RunRecord{
		ID:             uuid.NewString(),
		QueryHash:      HashQuery("implement the endpoint"),
		Class:          "CODE_IMPLEMENTATION",
		RuleCount:      2,
		TokensSelected: 700,
		CacheHits:      1,
		CacheMisses:    2,
		DurationMs:     42,
		Timestamp:      ts,
	}
}

func TestRecordRunAndRecentRuns(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	old := sampleRun(now.Add(-48 * time.Hour))
	recent := sampleRun(now.Add(-1 * time.Hour))
	newest := sampleRun(now)
	newest.Skipped = true
	for _, run := range []RunRecord{old, recent, newest} {
		if err := s.RecordRun(run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := s.RecentRuns(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != newest.ID || runs[1].ID != recent.ID {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
	if !runs[0].Skipped {
		t.Error("Skipped flag lost in round trip")
	}
	if runs[1].QueryHash != recent.QueryHash || runs[1].TokensSelected != 700 {
		t.Errorf("run fields lost in round trip: %+v", runs[1])
	}
}

func TestRecordSelectionsAndTopRules(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	events := []SelectionEvent{
		{RunID: "r1", RulePath: "base/core.md", Score: 20, Rank: 1, Timestamp: now},
		{RunID: "r1", RulePath: "languages/python.md", Score: 100, Rank: 0, Timestamp: now},
		{RunID: "r2", RulePath: "base/core.md", Score: 20, Rank: 0, Timestamp: now},
		{RunID: "r3", RulePath: "base/core.md", Score: 45, Rank: 0, Timestamp: now.Add(-72 * time.Hour)},
	}
	if err := s.RecordSelections(events); err != nil {
		t.Fatalf("RecordSelections: %v", err)
	}

	top, err := s.TopRules(now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("TopRules: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d rules, want 2", len(top))
	}
	if top[0].RulePath != "base/core.md" || top[0].Count != 2 {
		t.Errorf("top rule = %+v, want base/core.md x2", top[0])
	}
	if top[1].RulePath != "languages/python.md" || top[1].Count != 1 {
		t.Errorf("second rule = %+v", top[1])
	}

	limited, err := s.TopRules(now.Add(-24*time.Hour), 1)
	if err != nil {
		t.Fatalf("TopRules limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d rules", len(limited))
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	if err := s.RecordRun(sampleRun(now.Add(-10 * 24 * time.Hour))); err != nil {
		t.Fatal(err)
	}
	keep := sampleRun(now)
	if err := s.RecordRun(keep); err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(7 * 24 * time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	runs, err := s.RecentRuns(now.Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != keep.ID {
		t.Errorf("cleanup kept %d runs, want only the recent one", len(runs))
	}
}

func TestInitFailureDisablesStore(t *testing.T) {
	// Point the db path below a regular file so directory creation fails.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := writeEmptyFile(blocker); err != nil {
		t.Fatal(err)
	}
	s := NewStoreAt(filepath.Join(blocker, "history.db"))

	if err := s.Init(); err == nil {
		t.Fatal("expected Init to fail")
	}

	// Degraded store turns every operation into a no-op, never an error.
	if err := s.RecordRun(sampleRun(time.Now())); err != nil {
		t.Errorf("RecordRun on disabled store: %v", err)
	}
	runs, err := s.RecentRuns(time.Time{})
	if err != nil || runs != nil {
		t.Errorf("RecentRuns on disabled store = %v, %v", runs, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on disabled store: %v", err)
	}
}

func TestHashQuery(t *testing.T) {
	a := HashQuery("fix the login bug")
	b := HashQuery("fix the login bug")
	c := HashQuery("fix the logout bug")

	if a != b {
		t.Error("hash not deterministic")
	}
	if a == c {
		t.Error("distinct prompts share a hash")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

// memStore records calls for recorder tests.
type memStore struct {
	mu         sync.Mutex
	runs       []RunRecord
	selections []SelectionEvent
	initErr    error
}

func (m *memStore) Init() error { return m.initErr }

func (m *memStore) RecordRun(run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) RecordSelections(events []SelectionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections = append(m.selections, events...)
	return nil
}

func (m *memStore) RecentRuns(time.Time) ([]RunRecord, error)      { return nil, nil }
func (m *memStore) TopRules(time.Time, int) ([]RuleCount, error)   { return nil, nil }
func (m *memStore) Cleanup(time.Duration) error                    { return nil }
func (m *memStore) Close() error                                   { return nil }

func (m *memStore) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs), len(m.selections)
}

func TestRecorderFlushesOnStop(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil)

	run := sampleRun(time.Now())
	r.Record(run, []SelectionEvent{
		{RunID: run.ID, RulePath: "base/core.md", Score: 20, Rank: 0, Timestamp: run.Timestamp},
	})
	r.Stop()

	runs, sels := store.counts()
	if runs != 1 || sels != 1 {
		t.Errorf("after Stop: %d runs, %d selections; want 1, 1", runs, sels)
	}
}

func TestRecorderDisabledOnInitFailure(t *testing.T) {
	store := &memStore{initErr: errDisabled}
	r := NewRecorder(store, nil)

	r.Record(sampleRun(time.Now()), nil)
	r.Stop()

	runs, _ := store.counts()
	if runs != 0 {
		t.Errorf("disabled recorder wrote %d runs, want 0", runs)
	}
}
