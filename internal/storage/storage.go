/*
Package storage implements a persistent analytics store for selection
history.

The engine records which rules were selected for which prompt classes so
operators can inspect selection behavior over time (`rules-engine stats`).
History never feeds back into scoring: scores are a pure function of the
catalog, context, and intent.

The database lives at ~/.rules-engine/history.db and uses
modernc.org/sqlite (pure Go, CGo-free). If the database cannot be opened
the store degrades gracefully: recording becomes a no-op instead of an
error.
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width UTC timestamp format so that string
// comparison in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Store defines the persistent analytics operations.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// RecordRun records one pipeline run.
	RecordRun(run RunRecord) error

	// RecordSelections records the rules selected during one run.
	RecordSelections(events []SelectionEvent) error

	// RecentRuns returns runs since a given time, newest first.
	RecentRuns(since time.Time) ([]RunRecord, error)

	// TopRules returns selection counts per rule path since a given time,
	// most selected first.
	TopRules(since time.Time, limit int) ([]RuleCount, error)

	// Cleanup removes records older than the retention window.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a store at ~/.rules-engine/history.db. A failure to
// resolve the home directory disables the store instead of failing.
func NewStore() *SQLiteStore {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory: %v", err)
		return &SQLiteStore{enabled: false}
	}
	return &SQLiteStore{
		dbPath:  filepath.Join(home, ".rules-engine", "history.db"),
		enabled: true,
	}
}

// NewStoreAt creates a store at an explicit path (used by tests).
func NewStoreAt(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path, enabled: true}
}

// Init opens the database and runs migrations. On failure the store is
// disabled and subsequent operations become no-ops.
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// RecordRun inserts one pipeline run record.
func (s *SQLiteStore) RecordRun(run RunRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO pipeline_runs
			(id, query_hash, class, rule_count, tokens_selected,
			 cache_hits, cache_misses, duration_ms, skipped, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.QueryHash, run.Class, run.RuleCount, run.TokensSelected,
		run.CacheHits, run.CacheMisses, run.DurationMs, boolToInt(run.Skipped),
		run.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordSelections inserts selection events in one transaction.
func (s *SQLiteStore) RecordSelections(events []SelectionEvent) error {
	if !s.enabled || s.db == nil || len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rule_selections (run_id, rule_path, score, rank, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.RunID, ev.RulePath, ev.Score, ev.Rank,
			ev.Timestamp.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("failed to record selection: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns runs since a given time, newest first.
func (s *SQLiteStore) RecentRuns(since time.Time) ([]RunRecord, error) {
	if !s.enabled || s.db == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, query_hash, class, rule_count, tokens_selected,
		       cache_hits, cache_misses, duration_ms, skipped, timestamp
		FROM pipeline_runs
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var skipped int
		var ts string
		if err := rows.Scan(&run.ID, &run.QueryHash, &run.Class, &run.RuleCount,
			&run.TokensSelected, &run.CacheHits, &run.CacheMisses,
			&run.DurationMs, &skipped, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Skipped = skipped != 0
		run.Timestamp, _ = time.Parse(timeLayout, ts)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TopRules returns selection counts per rule path since a given time.
func (s *SQLiteStore) TopRules(since time.Time, limit int) ([]RuleCount, error) {
	if !s.enabled || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT rule_path, COUNT(*) AS n
		FROM rule_selections
		WHERE timestamp >= ?
		GROUP BY rule_path
		ORDER BY n DESC, rule_path ASC
		LIMIT ?
	`, since.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top rules: %w", err)
	}
	defer rows.Close()

	var counts []RuleCount
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.RulePath, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rule count: %w", err)
		}
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

// Cleanup removes records older than the retention window.
func (s *SQLiteStore) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	if _, err := s.db.Exec(`DELETE FROM rule_selections WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to clean selections: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM pipeline_runs WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to clean runs: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
