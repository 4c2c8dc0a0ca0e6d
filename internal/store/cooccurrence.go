package store

import "database/sql"

// BumpCooccurrence increments the co-occurrence count for a canonically
// ordered concept pair, used by the concept graph's record_cooccurrence as
// a lightweight boost signal distinct from link strength.
func (s *Store) BumpCooccurrence(conceptA, conceptB string) error {
	if conceptA > conceptB {
		conceptA, conceptB = conceptB, conceptA
	}

	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO cooccurrence (concept_a, concept_b, count, last_seen)
			 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			 ON CONFLICT(concept_a, concept_b) DO UPDATE SET
			   count = count + 1,
			   last_seen = CURRENT_TIMESTAMP`,
			conceptA, conceptB,
		)
		return err
	})
}

// GetCooccurrence returns the co-occurrence count for a concept pair, 0 if
// never recorded.
func (s *Store) GetCooccurrence(conceptA, conceptB string) (int64, error) {
	if conceptA > conceptB {
		conceptA, conceptB = conceptB, conceptA
	}

	var count int64
	err := s.WithConn(func(db *sql.DB) error {
		row := db.QueryRow(`SELECT count FROM cooccurrence WHERE concept_a = ? AND concept_b = ?`, conceptA, conceptB)
		err := row.Scan(&count)
		if err == sql.ErrNoRows {
			count = 0
			return nil
		}
		return err
	})

	return count, err
}
