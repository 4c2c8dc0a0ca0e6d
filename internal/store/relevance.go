package store

import "database/sql"

// SaveFactRelevance persists a per-dimension score breakdown for telemetry,
// per spec.md §4.3's "persisted to the fact-relevance table" requirement.
func (s *Store) SaveFactRelevance(r FactRelevanceRow) error {
	return s.WithConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO fact_relevance
			   (fact_id, query, identity, log, form, philosophy, reflex, cooccurrence, embedding, spread, keyword, final, computed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(fact_id, query) DO UPDATE SET
			   identity = excluded.identity,
			   log = excluded.log,
			   form = excluded.form,
			   philosophy = excluded.philosophy,
			   reflex = excluded.reflex,
			   cooccurrence = excluded.cooccurrence,
			   embedding = excluded.embedding,
			   spread = excluded.spread,
			   keyword = excluded.keyword,
			   final = excluded.final,
			   computed_at = CURRENT_TIMESTAMP`,
			r.FactID, r.Query, r.Identity, r.Log, r.Form, r.Philosophy, r.Reflex,
			r.Cooccurrence, r.Embedding, r.Spread, r.Keyword, r.Final,
		)
		return err
	})
}

// GetFactRelevance fetches the last-computed breakdown for a fact under a
// given query context.
func (s *Store) GetFactRelevance(factID int64, query string) (FactRelevanceRow, error) {
	var r FactRelevanceRow

	err := s.WithConn(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT fact_id, query, identity, log, form, philosophy, reflex, cooccurrence, embedding, spread, keyword, final, computed_at
			 FROM fact_relevance WHERE fact_id = ? AND query = ?`, factID, query)
		return row.Scan(&r.FactID, &r.Query, &r.Identity, &r.Log, &r.Form, &r.Philosophy, &r.Reflex,
			&r.Cooccurrence, &r.Embedding, &r.Spread, &r.Keyword, &r.Final, &r.ComputedAt)
	})

	return r, err
}
