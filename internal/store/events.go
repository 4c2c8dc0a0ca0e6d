package store

import (
	"database/sql"
)

// defaultMaxEventRows bounds the live events table before rows are moved
// to events_archive, the row-count analogue of "may rotate by size" in
// spec.md §6, grounded in the teacher's archival pattern
// (internal/store/local_cold.go / MaintenanceCleanup).
const defaultMaxEventRows = 10000

// AppendEvent appends a record to the event log. Event ids are assigned by
// SQLite's AUTOINCREMENT, which guarantees strict monotonicity within a
// process lifetime (spec.md §8 event monotonicity).
func (s *Store) AppendEvent(kind, source, message, payload string) (Event, error) {
	var ev Event

	err := s.WithConn(func(db *sql.DB) error {
		res, err := db.Exec(
			`INSERT INTO events (kind, source, message, payload) VALUES (?, ?, ?, ?)`,
			kind, source, message, payload,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		row := db.QueryRow(`SELECT id, kind, source, message, payload, created_at FROM events WHERE id = ?`, id)
		if err := row.Scan(&ev.ID, &ev.Kind, &ev.Source, &ev.Message, &ev.Payload, &ev.CreatedAt); err != nil {
			return err
		}

		return s.rotateEventsLocked(db)
	})

	return ev, err
}

// rotateEventsLocked moves the oldest rows into events_archive once the
// live table exceeds defaultMaxEventRows. Called from within an already
// acquired connection, so it must not call back into WithConn.
func (s *Store) rotateEventsLocked(db *sql.DB) error {
	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return err
	}
	if count <= defaultMaxEventRows {
		return nil
	}

	overflow := count - defaultMaxEventRows
	_, err := db.Exec(
		`INSERT INTO events_archive (id, kind, source, message, payload, created_at)
		 SELECT id, kind, source, message, payload, created_at FROM events
		 ORDER BY id ASC LIMIT ?`, overflow)
	if err != nil {
		return err
	}

	_, err = db.Exec(
		`DELETE FROM events WHERE id IN (SELECT id FROM events ORDER BY id ASC LIMIT ?)`, overflow)
	return err
}

// ListEvents returns up to limit most recent events, optionally filtered
// by kind, ordered oldest-to-newest.
func (s *Store) ListEvents(kind string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []Event
	err := s.WithConn(func(db *sql.DB) error {
		query := `SELECT id, kind, source, message, payload, created_at FROM events`
		args := []interface{}{}
		if kind != "" {
			query += ` WHERE kind = ?`
			args = append(args, kind)
		}
		query += ` ORDER BY id DESC LIMIT ?`
		args = append(args, limit)

		rows, err := db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		var reversed []Event
		for rows.Next() {
			var ev Event
			if err := rows.Scan(&ev.ID, &ev.Kind, &ev.Source, &ev.Message, &ev.Payload, &ev.CreatedAt); err != nil {
				return err
			}
			reversed = append(reversed, ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		events = make([]Event, len(reversed))
		for i, ev := range reversed {
			events[len(reversed)-1-i] = ev
		}
		return nil
	})

	return events, err
}
