// Schema definitions and versioned migration logic for the history
// database.

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
)

// runMigrations executes database schema migrations in order.
func (s *SQLiteStore) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.currentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}

	for _, m := range migrations {
		if version < m.version {
			log.Printf("Running migration %d: %s", m.version, m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStore) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

// currentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStore) currentMigrationVersion() (int, error) {
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStore) setMigrationVersion(version int, name string) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

// migration001InitialSchema creates the runs and selections tables.
func (s *SQLiteStore) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			id TEXT PRIMARY KEY,
			query_hash TEXT NOT NULL,
			class TEXT NOT NULL,
			rule_count INTEGER NOT NULL,
			tokens_selected INTEGER NOT NULL,
			cache_hits INTEGER NOT NULL,
			cache_misses INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create pipeline_runs table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pipeline_runs_timestamp
		ON pipeline_runs(timestamp)
	`); err != nil {
		return fmt.Errorf("failed to create pipeline_runs index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rule_selections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			rule_path TEXT NOT NULL,
			score INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create rule_selections table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rule_selections_path
		ON rule_selections(rule_path)
	`); err != nil {
		return fmt.Errorf("failed to create rule_selections path index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rule_selections_timestamp
		ON rule_selections(timestamp)
	`); err != nil {
		return fmt.Errorf("failed to create rule_selections timestamp index: %w", err)
	}

	return nil
}

// HashQuery creates a SHA256 hash of a prompt for privacy-preserving
// run records.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
