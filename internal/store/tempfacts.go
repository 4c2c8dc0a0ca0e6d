package store

import (
	"database/sql"
	"fmt"

	"linkcore/internal/corerr"
)

// CreateTempFact records a short-lived session observation in pending
// status, per spec.md §3's temp-fact lifecycle.
func (s *Store) CreateTempFact(t TempFact) (TempFact, error) {
	if t.SessionID == "" || t.Profile == "" || t.Key == "" {
		return TempFact{}, fmt.Errorf("%w: session, profile, and key are required", corerr.ErrInvalidInput)
	}
	if t.V1 == "" && t.V2 == "" && t.V3 == "" {
		return TempFact{}, fmt.Errorf("%w: at least one of v1/v2/v3 must be non-empty", corerr.ErrInvalidInput)
	}

	var id int64
	err := s.WithConn(func(db *sql.DB) error {
		res, err := db.Exec(
			`INSERT INTO temp_facts (session_id, profile, key, kind, v1, v2, v3, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
			t.SessionID, t.Profile, t.Key, t.Kind, t.V1, t.V2, t.V3,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return TempFact{}, err
	}

	t.ID = id
	t.Status = TempFactPending
	return t, nil
}

// ListPendingTempFacts returns every pending temp fact for a session, the
// input to consolidation step 1.
func (s *Store) ListPendingTempFacts(sessionID string) ([]TempFact, error) {
	var out []TempFact

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, session_id, profile, key, kind, v1, v2, v3, status, retries, created_at, resolved_at
			 FROM temp_facts WHERE session_id = ? AND status = 'pending' ORDER BY id`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t TempFact
			var resolvedAt sql.NullTime
			if err := rows.Scan(&t.ID, &t.SessionID, &t.Profile, &t.Key, &t.Kind, &t.V1, &t.V2, &t.V3,
				&t.Status, &t.Retries, &t.CreatedAt, &resolvedAt); err != nil {
				return err
			}
			if resolvedAt.Valid {
				t.ResolvedAt = &resolvedAt.Time
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	return out, err
}

// ListDistinctPendingSessions returns every session id with at least one
// pending temp fact, the driver for the background consolidation sweep.
func (s *Store) ListDistinctPendingSessions() ([]string, error) {
	var out []string

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT DISTINCT session_id FROM temp_facts WHERE status = 'pending' ORDER BY session_id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})

	return out, err
}

// MarkTempFactPromoted transitions a temp fact to its terminal promoted
// state.
func (s *Store) MarkTempFactPromoted(id int64) error {
	return s.setTempFactTerminal(id, TempFactPromoted)
}

// MarkTempFactDiscarded transitions a temp fact to its terminal discarded
// state.
func (s *Store) MarkTempFactDiscarded(id int64) error {
	return s.setTempFactTerminal(id, TempFactDiscarded)
}

func (s *Store) setTempFactTerminal(id int64, status TempFactStatus) error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`UPDATE temp_facts SET status = ?, resolved_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, id)
		return err
	})
}

// IncrementTempFactRetry bumps the retry counter for a fact that failed to
// promote, keeping it pending for the next consolidation run
// (ConsolidationRetryable, spec.md §4.4 failure semantics).
func (s *Store) IncrementTempFactRetry(id int64) (int, error) {
	var retries int

	err := s.WithConn(func(db *sql.DB) error {
		if _, err := db.Exec(`UPDATE temp_facts SET retries = retries + 1 WHERE id = ?`, id); err != nil {
			return err
		}
		return db.QueryRow(`SELECT retries FROM temp_facts WHERE id = ?`, id).Scan(&retries)
	})

	return retries, err
}
