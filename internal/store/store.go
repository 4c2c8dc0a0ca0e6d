// Package store implements the Linking Core's embedded relational storage:
// a single SQLite file selectable between primary and demo mode, with a
// connection discipline that guarantees every acquired connection is
// released on all exit paths including errors and cancellation. Grounded
// on the teacher's internal/store.LocalStore (NewLocalStore, PRAGMA
// tuning, single-writer connection pool).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"linkcore/internal/corerr"
	"linkcore/internal/logging"

	_ "modernc.org/sqlite"
)

// Mode selects which database file a Store is bound to.
type Mode string

const (
	ModePrimary Mode = "primary"
	ModeDemo    Mode = "demo"
)

// Store is the single embedded relational store backing every other
// component. It is the sole writer to its database file; its connection
// pool holds a single connection, so reads and writes through one handle
// run one at a time.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	dataDir  string
	mode     Mode
	busyWait time.Duration
}

// Open returns a handle bound to either the primary or demo database file
// under dataDir. Two concurrent handles to the same file are allowed; they
// share a single writer via SQLite's own locking.
func Open(dataDir string, mode Mode) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if mode != ModePrimary && mode != ModeDemo {
		return nil, fmt.Errorf("%w: unknown storage mode %q", corerr.ErrInvalidInput, mode)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create data directory: %v", corerr.ErrStorageUnavailable, err)
	}

	path := dbPath(dataDir, mode)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set synchronous=NORMAL: %v", err)
	}

	s := &Store{
		db:       db,
		dataDir:  dataDir,
		mode:     mode,
		busyWait: 5 * time.Second,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("store opened: mode=%s path=%s", mode, path)
	return s, nil
}

func dbPath(dataDir string, mode Mode) string {
	name := "linkcore.db"
	if mode == ModeDemo {
		name = "linkcore-demo.db"
	}
	return filepath.Join(dataDir, name)
}

// WithConn scopes a unit of work against the store's connection. f is
// invoked with the live *sql.DB; on any outcome (return, panic recovery is
// NOT performed here — callers must not panic) the caller's resources are
// considered released once f returns. Returns ErrStorageUnavailable if the
// store was never opened successfully, and wraps lock-contention failures
// as ErrStorageBusy.
func (s *Store) WithConn(f func(db *sql.DB) error) error {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()

	if db == nil {
		return corerr.ErrStorageUnavailable
	}

	err := f(db)
	if err != nil && isBusyError(err) {
		return fmt.Errorf("%w: %v", corerr.ErrStorageBusy, err)
	}
	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg, "database is locked", "SQLITE_BUSY", "busy")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(sub) <= len(s) && indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// SwitchMode opens a NEW *Store bound to mode's database file under the
// same data directory; the receiver is left unchanged and stays open, so
// in-flight transactions against it are allowed to complete. The old Store should be closed by the caller once its last
// in-flight user is done.
func (s *Store) SwitchMode(mode Mode) (*Store, error) {
	s.mu.RLock()
	dataDir := s.dataDir
	s.mu.RUnlock()

	return Open(dataDir, mode)
}

// Mode reports which database file this handle is bound to.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
