package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EnqueueDeferredConflict records a write that conflicts with a stored
// value under the same key, per spec.md §4.4 step 5's ConflictDeferred
// branch. The queue is global (not per-profile) per spec.md §9's open
// question resolution, with a TTL after which it is eligible for pruning.
func (s *Store) EnqueueDeferredConflict(c DeferredConflict, ttl time.Duration) (DeferredConflict, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	expiresAt := time.Now().Add(ttl)

	err := s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO deferred_conflicts
			   (id, profile, key, existing_text, proposed_text, proposed_v1, proposed_v2, proposed_v3, weight, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Profile, c.Key, c.ExistingText, c.ProposedText,
			c.ProposedV1, c.ProposedV2, c.ProposedV3, c.Weight, expiresAt,
		)
		return err
	})
	if err != nil {
		return DeferredConflict{}, err
	}

	c.ExpiresAt = expiresAt
	return c, nil
}

// ListDeferredConflicts returns all non-expired rows in the deferred
// queue.
func (s *Store) ListDeferredConflicts() ([]DeferredConflict, error) {
	var out []DeferredConflict

	err := s.WithConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, profile, key, existing_text, proposed_text, proposed_v1, proposed_v2, proposed_v3,
			        weight, created_at, expires_at
			 FROM deferred_conflicts WHERE expires_at > CURRENT_TIMESTAMP ORDER BY created_at`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c DeferredConflict
			if err := rows.Scan(&c.ID, &c.Profile, &c.Key, &c.ExistingText, &c.ProposedText,
				&c.ProposedV1, &c.ProposedV2, &c.ProposedV3, &c.Weight, &c.CreatedAt, &c.ExpiresAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	return out, err
}

// ResolveDeferredConflict removes a row once the user has confirmed or
// rejected it.
func (s *Store) ResolveDeferredConflict(id string) error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(`DELETE FROM deferred_conflicts WHERE id = ?`, id)
		return err
	})
}

// PruneExpiredDeferredConflicts deletes rows whose TTL has elapsed and
// returns how many were removed.
func (s *Store) PruneExpiredDeferredConflicts() (int64, error) {
	var affected int64

	err := s.WithConn(func(db *sql.DB) error {
		res, err := db.Exec(`DELETE FROM deferred_conflicts WHERE expires_at <= CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})

	return affected, err
}
