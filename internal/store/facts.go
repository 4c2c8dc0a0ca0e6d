package store

import (
	"database/sql"
	"fmt"

	"linkcore/internal/corerr"
	"linkcore/internal/logging"
)

// UpsertFact creates or updates a fact, enforcing the "at least one
// variant non-empty" and "(profile, key) unique" invariants from
// spec.md §3.
func (s *Store) UpsertFact(f Fact) (Fact, error) {
	timer := logging.StartTimer(logging.CategoryStore, "UpsertFact")
	defer timer.Stop()

	if f.Profile == "" || f.Key == "" {
		return Fact{}, fmt.Errorf("%w: profile and key are required", corerr.ErrInvalidInput)
	}
	if f.V1 == "" && f.V2 == "" && f.V3 == "" {
		return Fact{}, fmt.Errorf("%w: at least one of v1/v2/v3 must be non-empty", corerr.ErrInvalidInput)
	}
	if f.Weight < 0 || f.Weight > 1 {
		return Fact{}, fmt.Errorf("%w: weight must be in [0,1]", corerr.ErrInvalidInput)
	}

	err := s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO facts (profile, key, kind, v1, v2, v3, weight, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(profile, key) DO UPDATE SET
			   kind = excluded.kind,
			   v1 = excluded.v1,
			   v2 = excluded.v2,
			   v3 = excluded.v3,
			   weight = excluded.weight,
			   updated_at = CURRENT_TIMESTAMP`,
			f.Profile, f.Key, f.Kind, f.V1, f.V2, f.V3, f.Weight,
		)
		return err
	})
	if err != nil {
		return Fact{}, err
	}

	return s.GetFact(f.Profile, f.Key)
}

// GetFact fetches a fact and bumps its access counter, matching the
// teacher's LoadFacts access-tracking behavior.
func (s *Store) GetFact(profile, key string) (Fact, error) {
	var f Fact

	err := s.WithConn(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT id, profile, key, kind, v1, v2, v3, weight, access_count, created_at, updated_at
			 FROM facts WHERE profile = ? AND key = ?`, profile, key)
		if err := row.Scan(&f.ID, &f.Profile, &f.Key, &f.Kind, &f.V1, &f.V2, &f.V3,
			&f.Weight, &f.AccessCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return err
		}

		_, err := db.Exec(`UPDATE facts SET access_count = access_count + 1 WHERE id = ?`, f.ID)
		return err
	})

	return f, err
}

// ListFactsByProfile returns every fact owned by a profile.
func (s *Store) ListFactsByProfile(profile string) ([]Fact, error) {
	return s.queryFacts(`WHERE profile = ?`, profile)
}

// ListAllFacts returns every fact in the store; used by reindex().
func (s *Store) ListAllFacts() ([]Fact, error) {
	return s.queryFacts(``)
}

func (s *Store) queryFacts(whereClause string, args ...interface{}) ([]Fact, error) {
	var facts []Fact

	err := s.WithConn(func(db *sql.DB) error {
		query := `SELECT id, profile, key, kind, v1, v2, v3, weight, access_count, created_at, updated_at FROM facts ` + whereClause
		rows, err := db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var f Fact
			if err := rows.Scan(&f.ID, &f.Profile, &f.Key, &f.Kind, &f.V1, &f.V2, &f.V3,
				&f.Weight, &f.AccessCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
				return err
			}
			facts = append(facts, f)
		}
		return rows.Err()
	})

	return facts, err
}

// DeleteFact removes a fact. Callers are responsible for cascading the
// deletion into the concept graph's indexed references (§4.7 delete_fact).
func (s *Store) DeleteFact(profile, key string) (bool, error) {
	var affected int64

	err := s.WithConn(func(db *sql.DB) error {
		res, err := db.Exec(`DELETE FROM facts WHERE profile = ? AND key = ?`, profile, key)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})

	return affected > 0, err
}
