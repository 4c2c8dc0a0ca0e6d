package store

import (
	"database/sql"
	"fmt"

	"linkcore/internal/corerr"
)

// schemaStatements holds the idempotent DDL for every table the core uses.
// Each statement uses CREATE TABLE/INDEX IF NOT EXISTS so migrate() is safe
// to re-run across restarts, matching the teacher's initialize() pattern
// in internal/store/local_core.go.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		trust_level REAL NOT NULL DEFAULT 0.5,
		context_priority INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile TEXT NOT NULL,
		key TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		v1 TEXT NOT NULL DEFAULT '',
		v2 TEXT NOT NULL DEFAULT '',
		v3 TEXT NOT NULL DEFAULT '',
		weight REAL NOT NULL DEFAULT 0.5,
		access_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(profile, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_facts_profile_key ON facts(profile, key)`,

	`CREATE TABLE IF NOT EXISTS links (
		concept_a TEXT NOT NULL,
		concept_b TEXT NOT NULL,
		strength REAL NOT NULL DEFAULT 0,
		fire_count INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_fired DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_decay_day INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (concept_a, concept_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_concept_a ON links(concept_a)`,
	`CREATE INDEX IF NOT EXISTS idx_links_concept_b ON links(concept_b)`,
	`CREATE INDEX IF NOT EXISTS idx_links_last_fired ON links(last_fired)`,

	`CREATE TABLE IF NOT EXISTS cooccurrence (
		concept_a TEXT NOT NULL,
		concept_b TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (concept_a, concept_b)
	)`,

	`CREATE TABLE IF NOT EXISTS fact_relevance (
		fact_id INTEGER NOT NULL,
		query TEXT NOT NULL,
		identity REAL NOT NULL DEFAULT 0,
		log REAL NOT NULL DEFAULT 0,
		form REAL NOT NULL DEFAULT 0,
		philosophy REAL NOT NULL DEFAULT 0,
		reflex REAL NOT NULL DEFAULT 0,
		cooccurrence REAL NOT NULL DEFAULT 0,
		embedding REAL NOT NULL DEFAULT 0,
		spread REAL NOT NULL DEFAULT 0,
		keyword REAL NOT NULL DEFAULT 0,
		final REAL NOT NULL DEFAULT 0,
		computed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (fact_id, query)
	)`,

	`CREATE TABLE IF NOT EXISTS temp_facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		profile TEXT NOT NULL,
		key TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		v1 TEXT NOT NULL DEFAULT '',
		v2 TEXT NOT NULL DEFAULT '',
		v3 TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		retries INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		resolved_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_temp_facts_session_status ON temp_facts(session_id, status)`,

	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		message TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,

	`CREATE TABLE IF NOT EXISTS events_archive (
		id INTEGER PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		message TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		archived_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS deferred_conflicts (
		id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		key TEXT NOT NULL,
		existing_text TEXT NOT NULL,
		proposed_text TEXT NOT NULL,
		proposed_v1 TEXT NOT NULL DEFAULT '',
		proposed_v2 TEXT NOT NULL DEFAULT '',
		proposed_v3 TEXT NOT NULL DEFAULT '',
		weight REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS loops (
		name TEXT PRIMARY KEY,
		period_seconds INTEGER NOT NULL,
		cooldown_on_error_seconds INTEGER NOT NULL,
		max_consecutive_errors INTEGER NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		consecutive_errors INTEGER NOT NULL DEFAULT 0,
		last_run DATETIME,
		last_error TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS triggers (
		id TEXT PRIMARY KEY,
		predicate TEXT NOT NULL,
		cooldown_seconds INTEGER NOT NULL,
		fire_count INTEGER NOT NULL DEFAULT 0,
		last_fired DATETIME
	)`,
}

// migrate idempotently creates or upgrades the schema. Safe to call on
// every process start.
func (s *Store) migrate() error {
	return s.WithConn(func(db *sql.DB) error {
		for _, stmt := range schemaStatements {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("%w: migration statement failed: %v", corerr.ErrStorageCorrupt, err)
			}
		}
		return nil
	})
}
