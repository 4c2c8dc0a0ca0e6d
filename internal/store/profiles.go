package store

import (
	"database/sql"
	"fmt"

	"linkcore/internal/corerr"
)

// UpsertProfile creates or updates a profile.
func (s *Store) UpsertProfile(p Profile) error {
	if p.ID == "" || p.Type == "" {
		return fmt.Errorf("%w: profile id and type are required", corerr.ErrInvalidInput)
	}

	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO profiles (id, type, trust_level, context_priority)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   type = excluded.type,
			   trust_level = excluded.trust_level,
			   context_priority = excluded.context_priority`,
			p.ID, p.Type, p.TrustLevel, p.ContextPriority,
		)
		return err
	})
}

// GetProfile returns a single profile by id, or sql.ErrNoRows if absent.
func (s *Store) GetProfile(id string) (Profile, error) {
	var p Profile
	err := s.WithConn(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT id, type, trust_level, context_priority, created_at FROM profiles WHERE id = ?`, id)
		return row.Scan(&p.ID, &p.Type, &p.TrustLevel, &p.ContextPriority, &p.CreatedAt)
	})
	return p, err
}

// ListProfiles returns profiles, optionally filtered by type.
func (s *Store) ListProfiles(profileType string) ([]Profile, error) {
	var profiles []Profile

	err := s.WithConn(func(db *sql.DB) error {
		query := `SELECT id, type, trust_level, context_priority, created_at FROM profiles`
		args := []interface{}{}
		if profileType != "" {
			query += ` WHERE type = ?`
			args = append(args, profileType)
		}
		query += ` ORDER BY id`

		rows, err := db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Profile
			if err := rows.Scan(&p.ID, &p.Type, &p.TrustLevel, &p.ContextPriority, &p.CreatedAt); err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
		return rows.Err()
	})

	return profiles, err
}

// DeleteProfile removes a profile and cascades deletion to its facts.
func (s *Store) DeleteProfile(id string) (bool, error) {
	var affected int64

	err := s.WithConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM facts WHERE profile = ?`, id); err != nil {
			return err
		}

		res, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}

		return tx.Commit()
	})

	return affected > 0, err
}
