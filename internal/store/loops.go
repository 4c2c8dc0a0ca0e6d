package store

import "database/sql"

// UpsertLoopDescriptor persists a background loop's configuration and
// observed state, exposed read-only via introspection's loops.status.
func (s *Store) UpsertLoopDescriptor(l LoopDescriptor) error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO loops (name, period_seconds, cooldown_on_error_seconds, max_consecutive_errors,
			                     enabled, consecutive_errors, last_run, last_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   period_seconds = excluded.period_seconds,
			   cooldown_on_error_seconds = excluded.cooldown_on_error_seconds,
			   max_consecutive_errors = excluded.max_consecutive_errors,
			   enabled = excluded.enabled,
			   consecutive_errors = excluded.consecutive_errors,
			   last_run = excluded.last_run,
			   last_error = excluded.last_error`,
			l.Name, l.PeriodSeconds, l.CooldownOnErrorSecs, l.MaxConsecutiveErrors,
			l.Enabled, l.ConsecutiveErrors, l.LastRun, l.LastError,
		)
		return err
	})
}

// ListLoopDescriptors returns the observed state of every registered loop.
func (s *Store) ListLoopDescriptors() ([]LoopDescriptor, error) {
	var out []LoopDescriptor

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT name, period_seconds, cooldown_on_error_seconds, max_consecutive_errors,
			        enabled, consecutive_errors, last_run, last_error FROM loops ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l LoopDescriptor
			var lastRun sql.NullTime
			var enabled int
			if err := rows.Scan(&l.Name, &l.PeriodSeconds, &l.CooldownOnErrorSecs, &l.MaxConsecutiveErrors,
				&enabled, &l.ConsecutiveErrors, &lastRun, &l.LastError); err != nil {
				return err
			}
			l.Enabled = enabled != 0
			if lastRun.Valid {
				l.LastRun = lastRun.Time
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	return out, err
}

// UpsertTriggerDescriptor persists a trigger's configuration and fire
// history.
func (s *Store) UpsertTriggerDescriptor(t TriggerDescriptor) error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO triggers (id, predicate, cooldown_seconds, fire_count, last_fired)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   predicate = excluded.predicate,
			   cooldown_seconds = excluded.cooldown_seconds,
			   fire_count = excluded.fire_count,
			   last_fired = excluded.last_fired`,
			t.ID, t.Predicate, t.CooldownSecs, t.FireCount, t.LastFired,
		)
		return err
	})
}

// ListTriggerDescriptors returns every registered trigger's observed state.
func (s *Store) ListTriggerDescriptors() ([]TriggerDescriptor, error) {
	var out []TriggerDescriptor

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, predicate, cooldown_seconds, fire_count, last_fired FROM triggers ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t TriggerDescriptor
			var lastFired sql.NullTime
			if err := rows.Scan(&t.ID, &t.Predicate, &t.CooldownSecs, &t.FireCount, &lastFired); err != nil {
				return err
			}
			if lastFired.Valid {
				t.LastFired = lastFired.Time
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	return out, err
}
