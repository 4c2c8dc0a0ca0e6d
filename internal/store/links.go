package store

import "database/sql"

// canonicalPair orders two concepts so each unordered pair maps to exactly
// one row, per spec's canonical-order invariant for links.
func canonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// GetLink fetches a link row, returning ok=false if the pair has no edge.
func (s *Store) GetLink(a, b string) (Link, bool, error) {
	a, b = canonicalPair(a, b)

	var l Link
	var found bool
	err := s.WithConn(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT concept_a, concept_b, strength, fire_count, first_seen, last_fired, last_decay_day
			 FROM links WHERE concept_a = ? AND concept_b = ?`, a, b)
		scanErr := row.Scan(&l.ConceptA, &l.ConceptB, &l.Strength, &l.FireCount, &l.FirstSeen, &l.LastFired, &l.LastDecayDay)
		if scanErr == sql.ErrNoRows {
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		found = true
		return nil
	})

	return l, found, err
}

// UpsertLink writes a link row verbatim (caller has already computed the
// new strength/fire_count). Used by the graph package's Hebbian update.
func (s *Store) UpsertLink(l Link) error {
	a, b := canonicalPair(l.ConceptA, l.ConceptB)

	var firstSeen interface{}
	if !l.FirstSeen.IsZero() {
		firstSeen = l.FirstSeen
	}

	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO links (concept_a, concept_b, strength, fire_count, first_seen, last_fired, last_decay_day)
			 VALUES (?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), CURRENT_TIMESTAMP, ?)
			 ON CONFLICT(concept_a, concept_b) DO UPDATE SET
			   strength = excluded.strength,
			   fire_count = excluded.fire_count,
			   last_fired = excluded.last_fired,
			   last_decay_day = excluded.last_decay_day`,
			a, b, l.Strength, l.FireCount, firstSeen, l.LastDecayDay,
		)
		return err
	})
}

// ListLinksForConcept returns every link touching a concept, in either
// position.
func (s *Store) ListLinksForConcept(concept string) ([]Link, error) {
	var out []Link

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT concept_a, concept_b, strength, fire_count, first_seen, last_fired, last_decay_day
			 FROM links WHERE concept_a = ? OR concept_b = ?`, concept, concept)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l Link
			if err := rows.Scan(&l.ConceptA, &l.ConceptB, &l.Strength, &l.FireCount, &l.FirstSeen, &l.LastFired, &l.LastDecayDay); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	return out, err
}

// ListAllLinks returns every link row, used by decay sweeps and
// introspection's get_graph.
func (s *Store) ListAllLinks(limit int) ([]Link, error) {
	var out []Link

	err := s.WithConn(func(db *sql.DB) error {
		query := `SELECT concept_a, concept_b, strength, fire_count, first_seen, last_fired, last_decay_day FROM links ORDER BY strength DESC`
		var rows *sql.Rows
		var err error
		if limit > 0 {
			query += ` LIMIT ?`
			rows, err = db.Query(query, limit)
		} else {
			rows, err = db.Query(query)
		}
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l Link
			if err := rows.Scan(&l.ConceptA, &l.ConceptB, &l.Strength, &l.FireCount, &l.FirstSeen, &l.LastFired, &l.LastDecayDay); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	return out, err
}

// DeleteLink removes a link, used when decay prunes it below min_strength.
func (s *Store) DeleteLink(a, b string) error {
	a, b = canonicalPair(a, b)
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(`DELETE FROM links WHERE concept_a = ? AND concept_b = ?`, a, b)
		return err
	})
}

// ClearLinks removes every link row, used by Reindex to perform a true
// from-scratch rebuild rather than an additive one.
func (s *Store) ClearLinks() error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(`DELETE FROM links`)
		return err
	})
}

// CountLinks returns the total number of link rows, used for aggregate
// graph stats.
func (s *Store) CountLinks() (int64, error) {
	var n int64
	err := s.WithConn(func(db *sql.DB) error {
		return db.QueryRow(`SELECT COUNT(*) FROM links`).Scan(&n)
	})
	return n, err
}
