package db

import (
	"fmt"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// SaveRecommendations stores rule output for a run in one transaction.
// Existing recommendations for the run are replaced so re-running the
// allocation step is idempotent.
func (db *DB) SaveRecommendations(runID string, recs []merch.Recommendation) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recommendations WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear previous recommendations: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO recommendations (run_id, store_code, spu_code, action, rule, reason, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(runID, r.StoreCode, r.SPUCode, string(r.Action), r.Rule, r.Reason, r.Score); err != nil {
			return fmt.Errorf("failed to insert recommendation for %s/%s: %w", r.StoreCode, r.SPUCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}
	return nil
}

// GetRecommendations returns a run's recommendations, highest score first.
func (db *DB) GetRecommendations(runID string) ([]merch.Recommendation, error) {
	rows, err := db.Query(
		`SELECT store_code, spu_code, action, rule, reason, score
		 FROM recommendations WHERE run_id = ?
		 ORDER BY score DESC, store_code, spu_code`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var out []merch.Recommendation
	for rows.Next() {
		var r merch.Recommendation
		var action string
		if err := rows.Scan(&r.StoreCode, &r.SPUCode, &action, &r.Rule, &r.Reason, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.Action = merch.Action(action)
		out = append(out, r)
	}
	return out, rows.Err()
}
